// Package modeswitch holds the user/provider persona flag.
package modeswitch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/logging"
	"github.com/google/uuid"
)

// Persister schedules a write-through of a serialized value.
type Persister interface {
	Persist(key string, value []byte)
}

// Publisher receives ModeChanged events.
type Publisher interface {
	Publish(ctx context.Context, ev models.ModeChanged)
}

// Switch is the current mode. Every Switch call broadcasts, even when the
// mode does not change.
type Switch struct {
	mu      sync.Mutex
	mode    models.Mode
	persist Persister
	pub     Publisher
	guard   func() func()
	now     func() time.Time
	log     logging.Logger
}

func New(p Persister, pub Publisher, log logging.Logger) *Switch {
	return &Switch{
		mode:    models.ModeUser,
		persist: p,
		pub:     pub,
		guard:   func() func() { return func() {} },
		now:     time.Now,
		log:     logging.OrNop(log).With("component", "mode"),
	}
}

// WithClock overrides the event timestamp source.
func (s *Switch) WithClock(now func() time.Time) *Switch {
	s.now = now
	return s
}

// WithGuard makes Set hold guard while it mutates and persists. Events are
// published after the guard is released, so listeners may call back in.
func (s *Switch) WithGuard(guard func() (release func())) *Switch {
	s.guard = guard
	return s
}

// Mode returns the active mode.
func (s *Switch) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Switch makes mode active, persists it and broadcasts the change.
func (s *Switch) Switch(ctx context.Context, mode models.Mode, source string) error {
	ev, err := s.Set(ctx, mode, source)
	if err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.Publish(ctx, ev)
	}
	return nil
}

// Set makes mode active and persists it without broadcasting.
func (s *Switch) Set(ctx context.Context, mode models.Mode, source string) (models.ModeChanged, error) {
	if !mode.Valid() {
		return models.ModeChanged{}, fmt.Errorf("%w: %q", common.ErrInvalidMode, mode)
	}

	release := s.guard()
	defer release()
	s.mu.Lock()
	from := s.mode
	s.mode = mode
	if s.persist != nil {
		s.persist.Persist(models.KeyUserMode, []byte(mode))
	}
	ev := models.ModeChanged{
		ID:         uuid.NewString(),
		From:       from,
		To:         mode,
		Source:     source,
		OccurredAt: s.now().UTC(),
	}
	s.mu.Unlock()

	s.log.Info(ctx, "mode switched", "from", from, "to", mode, "source", source)
	return ev, nil
}

// Next is the mode a toggle lands on: next when given, otherwise the
// opposite of the active mode.
func (s *Switch) Next(next *models.Mode) models.Mode {
	if next != nil {
		return *next
	}
	return s.Mode().Opposite()
}

// Toggle switches to Next(next) and returns the mode now active.
func (s *Switch) Toggle(ctx context.Context, next *models.Mode, source string) (models.Mode, error) {
	target := s.Next(next)
	if err := s.Switch(ctx, target, source); err != nil {
		return s.Mode(), err
	}
	return target, nil
}

// Restore sets the mode from persisted state without broadcasting.
func (s *Switch) Restore(mode models.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidMode, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Reset restores user mode and persists it without broadcasting.
func (s *Switch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = models.ModeUser
	if s.persist != nil {
		s.persist.Persist(models.KeyUserMode, []byte(s.mode))
	}
}
