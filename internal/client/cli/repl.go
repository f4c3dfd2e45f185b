package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Status(ctx context.Context) error
	ToggleFavorite(ctx context.Context, domain, id string) error
	ListFavorites(ctx context.Context, domain string) error
	SwitchMode(ctx context.Context, target string) error
	SetLanguage(ctx context.Context, tag string) error
	SetCurrency(ctx context.Context, code string) error
	SetCountry(ctx context.Context, code string) error
	CompleteOnboarding(ctx context.Context) error
	UpdateUser(ctx context.Context, field, value string) error
	AddPaymentMethod(ctx context.Context, args []string) error
	RemovePaymentMethod(ctx context.Context, id string) error
	SetDefaultPaymentMethod(ctx context.Context, id string) error
	ListPaymentMethods(ctx context.Context) error
	Subscribe(ctx context.Context, plan string) error
	Cancel(ctx context.Context) error
	Reset(ctx context.Context) error
	Dump(ctx context.Context) error
	Purge(ctx context.Context) error
}

const replHelp = `Available commands:
  status                                  show the current state
  fav <domain> <id>                       toggle a favorite (property, provider, voyage, vehicle)
  favs [domain]                           list favorites
  mode [user|provider]                    switch mode, or toggle without an argument
  lang <tag> | currency <code> | country <code>
  user <name|email|avatar|provider> <value>
  onboard                                 mark onboarding completed
  pay add mobile_money <provider> <country> <phone> [currency] [--default]
  pay add card <last4> [--default]
  pay rm <id> | pay default <id> | pay list
  subscribe <pro-monthly|pro-yearly>
  cancel                                  cancel the subscription
  reset                                   return everything to defaults
  dump                                    print every persisted value
  purge                                   reset and remove every persisted value
  exit | quit                             leave the program`

var errUsage = errors.New("wrong number of arguments, type 'help'")

// runREPL starts a read–eval–print loop over the appstate commands.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit". When prompt is set, the status
// from statusFn is shown before every line.
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, prompt bool) {
	for {
		if prompt {
			printlnFn(fmt.Sprintf("appstate %s> ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(replHelp)

		case "status", "s":
			err = a.Status(ctx)

		case "fav":
			if len(args) != 2 {
				err = errUsage
				break
			}
			err = a.ToggleFavorite(ctx, args[0], args[1])

		case "favs":
			err = a.ListFavorites(ctx, strings.Join(args, ""))

		case "mode":
			err = a.SwitchMode(ctx, strings.Join(args, ""))

		case "lang":
			err = withOne(args, func(v string) error { return a.SetLanguage(ctx, v) })

		case "currency":
			err = withOne(args, func(v string) error { return a.SetCurrency(ctx, v) })

		case "country":
			err = withOne(args, func(v string) error { return a.SetCountry(ctx, v) })

		case "user":
			if len(args) < 2 {
				err = errUsage
				break
			}
			err = a.UpdateUser(ctx, args[0], strings.Join(args[1:], " "))

		case "onboard":
			err = a.CompleteOnboarding(ctx)

		case "pay":
			err = runPay(ctx, a, args)

		case "subscribe":
			err = withOne(args, func(v string) error { return a.Subscribe(ctx, v) })

		case "cancel":
			err = a.Cancel(ctx)

		case "reset":
			err = a.Reset(ctx)

		case "dump":
			err = a.Dump(ctx)

		case "purge":
			err = a.Purge(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func runPay(ctx context.Context, a execIface, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		return a.AddPaymentMethod(ctx, args[1:])
	case "rm":
		return withOne(args[1:], func(v string) error { return a.RemovePaymentMethod(ctx, v) })
	case "default":
		return withOne(args[1:], func(v string) error { return a.SetDefaultPaymentMethod(ctx, v) })
	case "list":
		return a.ListPaymentMethods(ctx)
	}
	return fmt.Errorf("unknown pay command %q (add, rm, default, list)", args[0])
}

func withOne(args []string, fn func(string) error) error {
	if len(args) != 1 {
		return errUsage
	}
	return fn(args[0])
}
