package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := []byte("fr")
	require.NoError(t, s.Set(ctx, "language", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, []byte("fr"), out)

	out[0] = 'y'
	again, _ := s.Get(ctx, "language")
	assert.Equal(t, []byte("fr"), again)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v, err := s.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, SetMany(ctx, s, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)

	require.NoError(t, s.Clear(ctx))
	m, _ = s.List(ctx)
	assert.Empty(t, m)
}
