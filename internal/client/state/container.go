// Package state is the application-wide client state container. It owns
// every component, hydrates them from a storage.Store at startup and writes
// each change through to the store.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/events"
	"github.com/dmitrijs2005/appstate/internal/client/favorites"
	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/modeswitch"
	"github.com/dmitrijs2005/appstate/internal/client/payments"
	"github.com/dmitrijs2005/appstate/internal/client/preferences"
	"github.com/dmitrijs2005/appstate/internal/client/storage"
	"github.com/dmitrijs2005/appstate/internal/client/subscription"
	"github.com/dmitrijs2005/appstate/internal/logging"
)

const (
	DefaultHydrationTimeout = 200 * time.Millisecond
	// detachedLoadTimeout bounds a hydration that outlives Initialize.
	detachedLoadTimeout = 30 * time.Second
)

// Options configures a Container. Only Store is usually set; the rest have
// working defaults.
type Options struct {
	Store   storage.Store
	Gateway payments.Gateway
	Bus     *events.Bus
	Logger  logging.Logger

	// HydrationTimeout bounds how long Initialize waits for persisted state.
	HydrationTimeout time.Duration
	// WriteTimeout bounds each write-through.
	WriteTimeout   time.Duration
	StrictCharging bool
	Now            func() time.Time
}

// Container is the single facade over user, preferences, favorites, mode
// and subscription state.
type Container struct {
	store  storage.Store
	writer *storage.Writer
	bus    *events.Bus
	log    logging.Logger

	prefs *preferences.Preferences
	favs  *favorites.Registry
	mode  *modeswitch.Switch
	subs  *subscription.Manager

	hydrationTimeout time.Duration

	// gate is held shared by actions and exclusively while hydration applies
	// loaded values. Actions never hold it across a gateway call.
	gate      sync.RWMutex
	hydrateMu sync.Mutex
	resetMu   sync.Mutex

	// dirtyMu guards dirty and batch, and is held while a write is queued,
	// so a key is marked and queued in one step.
	dirtyMu sync.Mutex
	dirty   map[string]struct{}
	batch   map[string][]byte

	mu       sync.RWMutex
	filters  models.Filters
	unread   bool
	hydrated bool
	ready    bool

	initOnce      sync.Once
	hydrationDone chan struct{}
}

func New(opts Options) *Container {
	log := logging.OrNop(opts.Logger)

	store := opts.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(log)
	}
	timeout := opts.HydrationTimeout
	if timeout <= 0 {
		timeout = DefaultHydrationTimeout
	}

	c := &Container{
		store:            store,
		writer:           storage.NewWriter(store, log, opts.WriteTimeout),
		bus:              bus,
		log:              log.With("component", "state"),
		hydrationTimeout: timeout,
		dirty:            map[string]struct{}{},
		filters:          models.DefaultFilters(),
		hydrationDone:    make(chan struct{}),
	}

	p := trackingPersister{c: c}
	c.prefs = preferences.New(p, log)
	c.favs = favorites.NewRegistry(p, log)
	c.mode = modeswitch.New(p, bus, log).WithGuard(c.guard)
	if opts.Now != nil {
		c.mode.WithClock(opts.Now)
	}
	c.subs = subscription.NewManager(subscription.Options{
		Gateway:        opts.Gateway,
		Persister:      p,
		Logger:         log,
		Now:            opts.Now,
		StrictCharging: opts.StrictCharging,
		Guard:          c.guard,
	})
	return c
}

// trackingPersister records written keys so a hydration can skip them.
// During Reset it collects values into one batch instead of queueing them.
type trackingPersister struct {
	c *Container
}

func (t trackingPersister) Persist(key string, value []byte) {
	t.c.dirtyMu.Lock()
	defer t.c.dirtyMu.Unlock()
	t.c.dirty[key] = struct{}{}
	if t.c.batch != nil {
		t.c.batch[key] = append([]byte(nil), value...)
		return
	}
	t.c.writer.Persist(key, value)
}

// guard holds the action side of the hydration gate: defer c.guard()().
func (c *Container) guard() func() {
	c.gate.RLock()
	return c.gate.RUnlock
}

// Initialize starts hydration and waits for it at most HydrationTimeout.
// The container is ready when it returns, with defaults for anything not
// loaded in time. Later calls do nothing.
func (c *Container) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		start := time.Now()

		go func() {
			defer close(c.hydrationDone)
			loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedLoadTimeout)
			defer cancel()
			if err := c.Hydrate(loadCtx); err != nil {
				c.log.Warn(loadCtx, "hydration incomplete, defaults kept", "error", err)
			}
		}()

		timer := time.NewTimer(c.hydrationTimeout)
		defer timer.Stop()

		select {
		case <-c.hydrationDone:
			c.log.Info(ctx, "state hydrated", "elapsed", time.Since(start))
		case <-timer.C:
			c.log.Warn(ctx, "hydration still running, continuing with defaults", "timeout", c.hydrationTimeout)
		case <-ctx.Done():
			c.log.Warn(ctx, "initialization cancelled, continuing with defaults", "error", ctx.Err())
		}

		c.mu.Lock()
		c.ready = true
		c.mu.Unlock()
	})
}

// HydrationDone is closed when the hydration started by Initialize has
// finished, whether or not Initialize was still waiting for it.
func (c *Container) HydrationDone() <-chan struct{} {
	return c.hydrationDone
}

// Flush waits for every scheduled write-through to complete.
func (c *Container) Flush(ctx context.Context) error {
	return c.writer.Flush(ctx)
}

// PendingWrites is the number of write-throughs not yet completed.
func (c *Container) PendingWrites() int {
	return c.writer.Pending()
}

// Close flushes pending writes and stops the writer.
func (c *Container) Close(ctx context.Context) error {
	return c.writer.Close(ctx)
}

// Reset returns every persisted and session value to its defaults and
// persists the defaults in one batch. No ModeChanged event is emitted.
func (c *Container) Reset(ctx context.Context) {
	c.resetMu.Lock()
	defer c.resetMu.Unlock()

	c.resetComponents(true)
	c.log.Info(ctx, "state reset")
}

// Purge returns memory to defaults and removes every persisted value, so
// the next start sees an empty store. Hydration waits until it is done.
func (c *Container) Purge(ctx context.Context) error {
	c.resetMu.Lock()
	defer c.resetMu.Unlock()
	c.hydrateMu.Lock()
	defer c.hydrateMu.Unlock()

	c.resetComponents(false)
	if err := c.writer.Flush(ctx); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	c.log.Info(ctx, "persisted state purged")
	return nil
}

// Export waits for pending writes and returns every persisted value.
func (c *Container) Export(ctx context.Context) (map[string][]byte, error) {
	if err := c.writer.Flush(ctx); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return c.store.List(ctx)
}

// resetComponents resets every component, collecting the defaults they
// persist into one batch. The batch is queued when persist is set and
// dropped otherwise.
func (c *Container) resetComponents(persist bool) {
	release := c.guard()
	defer release()

	c.dirtyMu.Lock()
	c.batch = map[string][]byte{}
	c.dirtyMu.Unlock()

	c.prefs.Reset()
	c.favs.Reset()
	c.mode.Reset()
	c.subs.Reset()

	c.mu.Lock()
	c.filters = models.DefaultFilters()
	c.unread = false
	c.mu.Unlock()

	c.dirtyMu.Lock()
	if persist {
		c.writer.PersistMany(c.batch)
	}
	c.batch = nil
	c.dirtyMu.Unlock()
}
