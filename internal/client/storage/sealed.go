package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/cryptox"
)

// Sealed encrypts values before they reach the inner store. Each value is
// bound to its key, so a blob copied under another key fails to open.
type Sealed struct {
	inner Store
	key   []byte
}

// NewSealed derives the sealing key from passphrase, salted with namespace.
func NewSealed(inner Store, passphrase, namespace string) *Sealed {
	return &Sealed{inner: inner, key: cryptox.DeriveKey([]byte(passphrase), []byte(namespace))}
}

func (s *Sealed) open(key string, raw []byte) ([]byte, error) {
	plain, err := cryptox.Open(s.key, raw, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: state[%s]: %v", common.ErrMalformedData, key, err)
	}
	return plain, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil || raw == nil {
		return raw, err
	}
	return s.open(key, raw)
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(s.key, value, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to seal state[%s]: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) SetMany(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := cryptox.Seal(s.key, v, []byte(k))
		if err != nil {
			return fmt.Errorf("failed to seal state[%s]: %w", k, err)
		}
		sealed[k] = b
	}
	return SetMany(ctx, s.inner, sealed)
}

// List fails with common.ErrMalformedData if any value cannot be opened.
func (s *Sealed) List(ctx context.Context) (map[string][]byte, error) {
	raw, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		plain, err := s.open(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = plain
	}
	return out, nil
}

func (s *Sealed) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

var (
	_ Store   = (*Sealed)(nil)
	_ Batcher = (*Sealed)(nil)
)
