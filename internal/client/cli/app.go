package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/config"
	"github.com/dmitrijs2005/appstate/internal/client/events"
	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/payments"
	"github.com/dmitrijs2005/appstate/internal/client/state"
	"github.com/dmitrijs2005/appstate/internal/client/storage"
	"github.com/dmitrijs2005/appstate/internal/logging"
)

// App wires configuration, storage, the payment gateway and the state
// container, and implements every user command.
type App struct {
	config    *config.Config
	container *state.Container
	log       logging.Logger
	out       io.Writer
	closers   []io.Closer
}

// NewApp builds the application and hydrates the container. logOut receives
// log records; out receives command output.
func NewApp(ctx context.Context, cfg *config.Config, out, logOut io.Writer) (*App, error) {
	log := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	a := &App{config: cfg, log: log, out: out}

	store, closer, err := storage.Open(ctx, storageOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	a.closers = append(a.closers, closer)

	gw, err := a.newGateway(log)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	bus := events.NewBus(log)
	if cfg.AMQPURL != "" {
		fwd, err := events.DialAMQP(cfg.AMQPURL, log)
		if err != nil {
			a.closeAll()
			return nil, err
		}
		a.closers = append(a.closers, fwd)
		bus.Subscribe(fwd.Listener())
	}

	a.container = state.New(state.Options{
		Store:            store,
		Gateway:          gw,
		Bus:              bus,
		Logger:           log,
		HydrationTimeout: cfg.HydrationTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		StrictCharging:   cfg.StrictCharging,
	})
	a.container.OnModeChanged(func(_ context.Context, ev models.ModeChanged) error {
		_, err := fmt.Fprintf(a.out, "mode changed: %s -> %s (%s)\n", ev.From, ev.To, ev.Source)
		return err
	})
	a.container.Initialize(ctx)

	return a, nil
}

func storageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.StoreDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Namespace:     cfg.Namespace,
		Passphrase:    cfg.SealPassphrase,
	}
}

func (a *App) newGateway(log logging.Logger) (payments.Gateway, error) {
	var gw payments.Gateway
	if a.config.GatewayAddr != "" {
		g, err := payments.DialGRPC(a.config.GatewayAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		gw = g
	} else {
		gw = payments.NewSandbox(declineList(a.config.SandboxDeclinePhones))
	}

	return payments.NewGuarded(gw, payments.GuardOptions{
		Timeout:          a.config.ChargeTimeout,
		MaxFailures:      a.config.BreakerMaxFailures,
		OpenTimeout:      a.config.BreakerOpenTimeout,
		ChargesPerMinute: a.config.ChargesPerMinute,
	}, log), nil
}

// declineList parses "phone" or "phone=reason" entries.
func declineList(entries []string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		phone, reason, _ := strings.Cut(e, "=")
		out[strings.TrimSpace(phone)] = strings.TrimSpace(reason)
	}
	return out
}

var errLoadTimeout = errors.New("persisted state not loaded in time")

// awaitHydration blocks until the container has finished loading persisted
// state, at most LoadTimeout. Acting before that would overwrite stored
// values with defaults.
func (a *App) awaitHydration(ctx context.Context) error {
	done := a.container.HydrationDone()
	select {
	case <-done:
		return nil
	default:
	}

	timer := time.NewTimer(a.config.LoadTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w (%s)", errLoadTimeout, a.config.LoadTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Container exposes the state container.
func (a *App) Container() *state.Container {
	return a.container
}

// Close flushes pending writes and releases every resource.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.container != nil {
		errs = append(errs, a.container.Close(ctx))
	}
	errs = append(errs, a.closeAll())
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
