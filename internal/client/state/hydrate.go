package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/appstate/internal/client/favorites"
	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/preferences"
	"github.com/dmitrijs2005/appstate/internal/client/subscription"
	"github.com/dmitrijs2005/appstate/internal/common"
)

// Hydrate loads every key from the store and applies what it finds. Keys
// whose latest write has not reached the store, and keys written since this
// call began, keep their in-memory value. Unreadable values are replaced by
// the in-memory value and rewritten. IsHydrated is true afterwards whatever
// the outcome; the returned error is informational.
func (c *Container) Hydrate(ctx context.Context) error {
	c.hydrateMu.Lock()
	defer c.hydrateMu.Unlock()

	c.resetDirty()

	defer func() {
		c.mu.Lock()
		c.hydrated = true
		c.mu.Unlock()
	}()

	values := make(map[string][]byte, len(models.AllKeys))
	var loadErrs []error
	var malformed []string
	for _, key := range models.AllKeys {
		raw, err := c.store.Get(ctx, key)
		switch {
		case errors.Is(err, common.ErrMalformedData):
			malformed = append(malformed, key)
		case err != nil:
			loadErrs = append(loadErrs, fmt.Errorf("load %s: %w", key, err))
		case raw != nil:
			values[key] = raw
		}
	}

	c.gate.Lock()
	defer c.gate.Unlock()

	applied, skipped := 0, 0
	for _, key := range models.AllKeys {
		raw, ok := values[key]
		if !ok {
			continue
		}
		if c.isDirty(key) {
			skipped++
			continue
		}
		if err := c.apply(key, raw); err != nil {
			c.log.Warn(ctx, "discarding unreadable persisted value", "key", key, "error", err)
			malformed = append(malformed, key)
			continue
		}
		applied++
	}

	for _, key := range malformed {
		if c.isDirty(key) {
			continue
		}
		c.repair(ctx, key)
	}

	c.log.Debug(ctx, "hydration applied", "applied", applied, "skipped", skipped, "repaired", len(malformed))
	return errors.Join(loadErrs...)
}

// resetDirty keeps only the keys memory still holds newer values for:
// queued, in flight, failed, or collected by a running Reset.
func (c *Container) resetDirty() {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()

	dirty := map[string]struct{}{}
	for _, k := range c.writer.Unsynced() {
		dirty[k] = struct{}{}
	}
	for k := range c.batch {
		dirty[k] = struct{}{}
	}
	c.dirty = dirty
}

func (c *Container) isDirty(key string) bool {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	_, ok := c.dirty[key]
	return ok
}

func (c *Container) apply(key string, raw []byte) error {
	if d, ok := models.FavoriteDomainForKey(key); ok {
		ids, err := favorites.Decode(raw)
		if err != nil {
			return err
		}
		return c.favs.Restore(d, ids)
	}

	switch key {
	case models.KeyUserMode:
		return malformedIf(c.mode.Restore(models.Mode(raw)))
	case models.KeyUser:
		u, err := preferences.DecodeUser(raw)
		if err != nil {
			return err
		}
		c.prefs.RestoreUser(u)
	case models.KeyLanguage:
		return malformedIf(c.prefs.RestoreLanguage(string(raw)))
	case models.KeyCurrency:
		return malformedIf(c.prefs.RestoreCurrency(string(raw)))
	case models.KeyHasCompletedOnboarding:
		done, err := preferences.DecodeOnboarding(raw)
		if err != nil {
			return err
		}
		c.prefs.RestoreOnboarding(done)
	case models.KeySubscription:
		sub, err := subscription.Decode(raw)
		if err != nil {
			return err
		}
		return c.subs.Restore(sub)
	}
	return nil
}

func malformedIf(err error) error {
	if err == nil || errors.Is(err, common.ErrMalformedData) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrMalformedData, err)
}

// repair overwrites key with the serialized in-memory value.
func (c *Container) repair(ctx context.Context, key string) {
	raw, err := c.encode(key)
	if err != nil {
		c.log.Error(ctx, "failed to encode default", "key", key, "error", err)
		return
	}
	c.writer.Persist(key, raw)
}

func (c *Container) encode(key string) ([]byte, error) {
	if d, ok := models.FavoriteDomainForKey(key); ok {
		return favorites.Encode(c.favs.IDs(d))
	}

	switch key {
	case models.KeyUserMode:
		return []byte(c.mode.Mode()), nil
	case models.KeyUser:
		return preferences.EncodeUser(c.prefs.User())
	case models.KeyLanguage:
		return []byte(c.prefs.Language()), nil
	case models.KeyCurrency:
		return []byte(c.prefs.Currency()), nil
	case models.KeyHasCompletedOnboarding:
		if c.prefs.HasCompletedOnboarding() {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case models.KeySubscription:
		return subscription.Encode(c.subs.Snapshot())
	}
	return nil, fmt.Errorf("unknown key %q", key)
}
