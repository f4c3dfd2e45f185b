// Package events delivers ModeChanged notifications to interested parties.
package events

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/logging"
)

// Listener receives mode change events. A returned error is logged and does
// not stop delivery to the remaining listeners.
type Listener func(ctx context.Context, ev models.ModeChanged) error

// Bus is a synchronous in-process fan-out. Listeners run on the publishing
// goroutine in subscription order.
type Bus struct {
	log logging.Logger

	mu        sync.RWMutex
	next      uint64
	listeners []subscription
}

type subscription struct {
	id uint64
	fn Listener
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{log: logging.OrNop(log).With("component", "events")}
}

// Subscribe registers fn and returns a function removing it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every listener registered at call time.
func (b *Bus) Publish(ctx context.Context, ev models.ModeChanged) {
	b.mu.RLock()
	snapshot := make([]subscription, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.RUnlock()

	for _, s := range snapshot {
		if err := s.fn(ctx, ev); err != nil {
			b.log.Error(ctx, "mode listener failed", "event_id", ev.ID, "error", err)
		}
	}
	b.log.Debug(ctx, "mode change dispatched",
		"event_id", ev.ID, "from", ev.From, "to", ev.To, "source", ev.Source,
		"listeners", len(snapshot),
	)
}
