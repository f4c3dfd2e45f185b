package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/appstate/internal/buildinfo"
	"github.com/dmitrijs2005/appstate/internal/client/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const closeTimeout = 10 * time.Second

// NewRootCommand builds the appstate command tree. envFiles are the dotenv
// files read by the config loader (default ".env").
func NewRootCommand(envFiles ...string) *cobra.Command {
	loader := config.NewLoader(envFiles...)

	root := &cobra.Command{
		Use:           "appstate",
		Short:         "Client-side application state: favorites, mode, preferences and subscriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	loader.RegisterFlags(root.PersistentFlags())

	// One-shot commands act on the fully loaded state; the shell starts
	// after the bounded hydration wait.
	run := func(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, loader, true, func(ctx context.Context, a *App) error {
				return fn(ctx, a, args)
			})
		}
	}
	shell := func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, loader, false, func(ctx context.Context, a *App) error {
			return a.RunREPL(ctx, root.InOrStdin())
		})
	}

	root.RunE = shell

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  shell,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current state",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.Status(ctx)
			}),
		},
		&cobra.Command{
			Use:     "favorite <domain> <id>",
			Aliases: []string{"fav"},
			Short:   "Toggle a favorite (property, provider, voyage, vehicle)",
			Args:    cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.ToggleFavorite(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:     "favorites [domain]",
			Aliases: []string{"favs"},
			Short:   "List favorites",
			Args:    cobra.MaximumNArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.ListFavorites(ctx, firstArg(args))
			}),
		},
		&cobra.Command{
			Use:       "mode [user|provider]",
			Short:     "Switch mode, or toggle it without an argument",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{"user", "provider"},
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.SwitchMode(ctx, firstArg(args))
			}),
		},
		&cobra.Command{
			Use:   "lang <tag>",
			Short: "Set the interface language (BCP 47 tag)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.SetLanguage(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "currency <code>",
			Short: "Set the display currency (ISO 4217)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.SetCurrency(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "country <code>",
			Short: "Set the country (ISO 3166-1 alpha-2)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.SetCountry(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "user <name|email|avatar|provider> <value>",
			Short: "Update one field of the user profile",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.UpdateUser(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "onboard",
			Short: "Mark onboarding as completed",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.CompleteOnboarding(ctx)
			}),
		},
		newPayCommand(run),
		&cobra.Command{
			Use:       "subscribe <pro-monthly|pro-yearly>",
			Short:     "Subscribe to a plan with the default payment method",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"pro-monthly", "pro-yearly"},
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.Subscribe(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "cancel",
			Short: "Cancel the subscription",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.Cancel(ctx)
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Return all state to defaults",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.Reset(ctx)
			}),
		},
		&cobra.Command{
			Use:   "dump",
			Short: "Print every persisted value",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.Dump(ctx)
			}),
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Return all state to defaults and remove it from the store",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.Purge(ctx)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)

	return root
}

type runner func(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error

func newPayCommand(run runner) *cobra.Command {
	pay := &cobra.Command{
		Use:   "pay",
		Short: "Manage payment methods",
	}
	var makeDefault bool
	add := &cobra.Command{
		Use:   "add mobile_money <provider> <country> <phone> [currency] | add card <last4>",
		Short: "Add a payment method",
		Args:  cobra.RangeArgs(2, 5),
		RunE: run(func(ctx context.Context, a *App, args []string) error {
			if makeDefault {
				args = append(args, defaultFlag)
			}
			return a.AddPaymentMethod(ctx, args)
		}),
	}
	add.Flags().BoolVar(&makeDefault, "default", false, "make it the default payment method")

	pay.AddCommand(
		add,
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Remove a payment method",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.RemovePaymentMethod(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "default <id>",
			Short: "Make a payment method the default",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *App, args []string) error {
				return a.SetDefaultPaymentMethod(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List payment methods",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, a *App, _ []string) error {
				return a.ListPaymentMethods(ctx)
			}),
		},
	)
	return pay
}

// withApp loads the configuration, builds the App for one command and
// closes it afterwards, flushing pending writes. With fullLoad set, fn runs
// only once hydration has finished.
func withApp(cmd *cobra.Command, loader *config.Loader, fullLoad bool, fn func(context.Context, *App) error) (err error) {
	cfg, err := loader.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := NewApp(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if fullLoad {
		if err := a.awaitHydration(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}

// RunREPL runs the interactive shell on in until EOF or "exit".
func (a *App) RunREPL(ctx context.Context, in io.Reader) error {
	interactive := isTerminal(in)
	if interactive {
		printlnFn("Welcome to appstate (type 'help' for commands)")
	}
	runREPL(ctx, a, a.promptStatus, bufio.NewScanner(in), interactive)
	return nil
}

func (a *App) promptStatus() string {
	c := a.container
	return fmt.Sprintf("(%s %s)", c.UserMode(), c.Subscription().Plan)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
