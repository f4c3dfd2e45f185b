package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	pass := []byte("secret-password")

	key1 := DeriveKey(pass, []byte("appstate"))
	key2 := DeriveKey(pass, []byte("appstate"))

	require.Len(t, key1, KeySize)
	assert.True(t, bytes.Equal(key1, key2), "same inputs must give the same key")
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	pass := []byte("secret-password")

	key1 := DeriveKey(pass, []byte("salt-1"))
	key2 := DeriveKey(pass, []byte("salt-2"))

	assert.False(t, bytes.Equal(key1, key2))
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("ns"))
	plain := []byte(`{"plan":"pro-monthly"}`)

	sealed, err := Seal(key, plain, []byte("subscription"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "pro-monthly")

	got, err := Open(key, sealed, []byte("subscription"))
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestSeal_FreshNonceEachCall(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("ns"))

	a, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)
	b, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_Failures(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("ns"))
	sealed, err := Seal(key, []byte("fr"), []byte("language"))
	require.NoError(t, err)

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := Open(key, sealed, []byte("currency"))
		require.ErrorIs(t, err, ErrOpen)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte(nil), sealed...)
		bad[len(bad)-1] ^= 0xFF
		_, err := Open(key, bad, []byte("language"))
		require.ErrorIs(t, err, ErrOpen)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Open(key, sealed[:5], []byte("language"))
		require.ErrorIs(t, err, ErrOpen)
	})

	t.Run("plaintext value", func(t *testing.T) {
		_, err := Open(key, []byte("fr"), []byte("language"))
		require.ErrorIs(t, err, ErrOpen)
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := Open([]byte("short"), sealed, nil)
		require.ErrorIs(t, err, ErrInvalidKey)
	})
}
