// Package storage is the persistence adapter of the state container: an
// opaque key/value store with interchangeable backends and an asynchronous
// write-through queue in front of it.
//
// Backends are selected once, at construction time, by Open:
//
//   - sqlite: on-device file (default), schema managed by goose
//   - postgres: shared database through the pgx stdlib driver
//   - redis: namespaced keys in a Redis instance
//   - memory: process-local map, for tests and throwaway sessions
//
// Any backend can be wrapped with Sealed to encrypt values at rest.
package storage

import "context"

// Store is an overwrite-per-key, last-write-wins key/value store.
//
// Get returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// SetMany writes values through s, atomically when s is a Batcher.
func SetMany(ctx context.Context, s Store, values map[string][]byte) error {
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, values)
	}
	for k, v := range values {
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
