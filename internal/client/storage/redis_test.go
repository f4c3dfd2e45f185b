package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestRedis_SetGetNamespaced(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "userMode", []byte("provider")))

	got, err := mr.Get("test:userMode")
	require.NoError(t, err)
	assert.Equal(t, "provider", got)

	v, err := s.Get(ctx, "userMode")
	require.NoError(t, err)
	assert.Equal(t, []byte("provider"), v)
}

func TestRedis_GetMissing(t *testing.T) {
	s, _ := setupRedis(t)

	v, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRedis_SetManyListClear(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("other:language", "en"))

	require.NoError(t, s.SetMany(ctx, map[string][]byte{
		"language": []byte("fr"),
		"currency": []byte("XOF"),
	}))

	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"language": []byte("fr"), "currency": []byte("XOF")}, m)

	require.NoError(t, s.Clear(ctx))

	m, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.True(t, mr.Exists("other:language"), "clear must stay inside the namespace")
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = OpenRedis(context.Background(), addr, "", 0, "test")
	require.ErrorContains(t, err, "failed to connect to Redis")
}
