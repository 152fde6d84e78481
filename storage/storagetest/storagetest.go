// Package storagetest holds the behaviour every storage.KV backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/visitor-session/storage"
)

// Run exercises kv against the storage.KV contract. kv must start empty.
func Run(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := kv.Get(ctx, storage.KeyUser)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, "access-1"))
		v, ok, err := kv.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "access-1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, "access-2"))
		v, _, err := kv.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "access-2", v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, storage.KeyRefreshToken, ""))
		_, ok, err := kv.Get(ctx, storage.KeyRefreshToken)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, kv.Remove(ctx, storage.KeyAccessToken))
		_, ok, err := kv.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("remove missing key", func(t *testing.T) {
		require.NoError(t, kv.Remove(ctx, "never-set"))
	})

	for _, k := range storage.SessionKeys {
		require.NoError(t, kv.Remove(ctx, k))
	}
}
