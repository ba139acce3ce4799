package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
)

func TestRedisStoreNamespacesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	a := auth.NewRedisStore(client, "sess-a", time.Minute)
	b := auth.NewRedisStore(client, "sess-b", 0)

	value, err := a.Get(ctx, auth.KeyToken)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, a.Set(ctx, auth.KeyToken, "token-a"))
	require.NoError(t, b.Set(ctx, auth.KeyToken, "token-b"))
	mr.CheckGet(t, "auth:sess-a:auth_token", "token-a")
	require.Equal(t, time.Minute, mr.TTL("auth:sess-a:auth_token"))
	require.Zero(t, mr.TTL("auth:sess-b:auth_token"))

	require.NoError(t, a.Delete(ctx, auth.SessionKeys...))
	value, err = a.Get(ctx, auth.KeyToken)
	require.NoError(t, err)
	require.Empty(t, value)
	value, err = b.Get(ctx, auth.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "token-b", value)

	require.NoError(t, a.Delete(ctx))
}

func TestRedisStoreSurfacesErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := auth.NewRedisStore(client, "sess", time.Minute)
	mr.Close()

	_, err := store.Get(context.Background(), auth.KeyToken)
	require.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryStore()
	require.NoError(t, store.Set(ctx, auth.KeyToken, "t"))
	require.NoError(t, store.Set(ctx, auth.KeyPortalUser, "p"))
	require.NoError(t, store.Delete(ctx, auth.SessionKeys...))
	for _, key := range auth.SessionKeys {
		value, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Empty(t, value)
	}
}
