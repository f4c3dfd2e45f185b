package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/config"
	"github.com/dmitrijs2005/appstate/internal/client/events"
	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/payments"
	"github.com/dmitrijs2005/appstate/internal/client/state"
	"github.com/dmitrijs2005/appstate/internal/client/storage"
	"github.com/dmitrijs2005/appstate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedGetStore holds every read until release is closed.
type gatedGetStore struct {
	*storage.MemoryStore
	release chan struct{}
}

func (s *gatedGetStore) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.MemoryStore.Get(ctx, key)
}

func newGatedApp(t *testing.T, loadTimeout time.Duration) (*App, *gatedGetStore, *bytes.Buffer) {
	t.Helper()

	store := &gatedGetStore{MemoryStore: storage.NewMemoryStore(), release: make(chan struct{})}
	require.NoError(t, store.MemoryStore.Set(context.Background(), models.KeyFavoriteProperties, []byte(`["p0"]`)))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.HydrationTimeout = 10 * time.Millisecond
	cfg.LoadTimeout = loadTimeout

	log := logging.NewNop()
	c := state.New(state.Options{
		Store:            store,
		Gateway:          payments.NewSandbox(nil),
		Bus:              events.NewBus(log),
		Logger:           log,
		HydrationTimeout: cfg.HydrationTimeout,
		WriteTimeout:     time.Second,
	})
	c.Initialize(context.Background())

	var out bytes.Buffer
	a := &App{config: cfg, container: c, log: log, out: &out}
	t.Cleanup(func() {
		select {
		case <-store.release:
		default:
			close(store.release)
		}
		_ = c.Close(context.Background())
	})
	return a, store, &out
}

func TestApp_OneShotWaitsForSlowLoad(t *testing.T) {
	a, store, out := newGatedApp(t, 5*time.Second)
	require.False(t, a.container.IsHydrated())

	waited := make(chan error, 1)
	go func() { waited <- a.awaitHydration(context.Background()) }()

	select {
	case err := <-waited:
		t.Fatalf("returned before the store answered: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("still waiting after the store answered")
	}

	require.NoError(t, a.ToggleFavorite(context.Background(), "property", "p1"))
	assert.Contains(t, out.String(), "property p1 added to favorites")
	require.NoError(t, a.container.Flush(context.Background()))

	assert.Equal(t, []string{"p0", "p1"}, a.container.FavoritePropertyIDs())
	raw, err := store.MemoryStore.Get(context.Background(), models.KeyFavoriteProperties)
	require.NoError(t, err)
	assert.JSONEq(t, `["p0","p1"]`, string(raw))
}

func TestApp_OneShotGivesUpAfterLoadTimeout(t *testing.T) {
	a, store, _ := newGatedApp(t, 20*time.Millisecond)

	err := a.awaitHydration(context.Background())
	require.ErrorIs(t, err, errLoadTimeout)

	raw, err := store.MemoryStore.Get(context.Background(), models.KeyFavoriteProperties)
	require.NoError(t, err)
	assert.JSONEq(t, `["p0"]`, string(raw))
}

func TestApp_OneShotStopsOnCancel(t *testing.T) {
	a, _, _ := newGatedApp(t, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.awaitHydration(ctx), context.Canceled)
}
