package store_test

import (
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mateusmanuel/roteirizador/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.NewRedisStoreWithClient(client, slog.Default()), srv
}

func TestRedisStore(t *testing.T) {
	ctx := t.Context()

	t.Run("set then get round trips", func(t *testing.T) {
		sessionStore, _ := newTestRedisStore(t)

		require.NoError(t, sessionStore.Set(ctx, "roteirizador:delivered", `[0,2]`))

		value, found, err := sessionStore.Get(ctx, "roteirizador:delivered")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[0,2]`, value)
	})

	t.Run("missing key is not found, not an error", func(t *testing.T) {
		sessionStore, _ := newTestRedisStore(t)

		value, found, err := sessionStore.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("set replaces the previous value", func(t *testing.T) {
		sessionStore, _ := newTestRedisStore(t)

		require.NoError(t, sessionStore.Set(ctx, "key", `[1]`))
		require.NoError(t, sessionStore.Set(ctx, "key", `[1,4]`))

		value, found, err := sessionStore.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[1,4]`, value)
	})

	t.Run("server failure surfaces as an error", func(t *testing.T) {
		sessionStore, srv := newTestRedisStore(t)
		srv.Close()

		_, _, err := sessionStore.Get(ctx, "key")
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to get session value")

		err = sessionStore.Set(ctx, "key", "value")
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to set session value")
	})
}

func TestNewRedisStore(t *testing.T) {
	t.Run("connects with a valid URL", func(t *testing.T) {
		srv := miniredis.RunT(t)

		sessionStore, err := store.NewRedisStore(t.Context(), "redis://"+srv.Addr(), slog.Default())
		require.NoError(t, err)
		require.NotNil(t, sessionStore)
	})

	t.Run("rejects a malformed URL", func(t *testing.T) {
		_, err := store.NewRedisStore(t.Context(), "://not-a-url", slog.Default())
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to parse redis URL")
	})

	t.Run("fails when the server is unreachable", func(t *testing.T) {
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		_, err := store.NewRedisStore(t.Context(), "redis://"+addr, slog.Default())
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to ping redis")
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("set then get round trips", func(t *testing.T) {
		t.Parallel()
		sessionStore := store.NewMemoryStore()

		require.NoError(t, sessionStore.Set(ctx, "key", `[3]`))

		value, found, err := sessionStore.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[3]`, value)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		t.Parallel()
		sessionStore := store.NewMemoryStore()

		_, found, err := sessionStore.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
