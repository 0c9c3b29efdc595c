package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileTokenStore(path)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(ctx, "abc.def.ghi"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileTokenStoreBlankFileIsNoToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := NewFileTokenStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTokenStore(client, "dormhop:token", ttl), mr
}

func TestRedisTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, 0)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(ctx, "tok"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, time.Duration(0), mr.TTL("dormhop:token"))

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists("dormhop:token"))
}

func TestRedisTokenStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "tok"))
	assert.Equal(t, time.Hour, mr.TTL("dormhop:token"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRedisTokenStoreConnectionError(t *testing.T) {
	s, mr := newRedisStore(t, 0)
	mr.Close()

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}
