package filekv_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/visitor-session/storage"
	"github.com/jrsteele09/visitor-session/storage/filekv"
	"github.com/jrsteele09/visitor-session/storage/storagetest"
)

func TestFileKV(t *testing.T) {
	kv, err := filekv.Open(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)
	storagetest.Run(t, kv)
}

func TestFileKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	kv, err := filekv.Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, "access-1"))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"id":"u1"}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := filekv.Open(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":"u1"}`, v)
}

func TestFileKVDiscardsGarbage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	kv, err := filekv.Open(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	for _, key := range storage.SessionKeys {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.False(t, ok)
	}

	require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, "access-1"))
	reopened, err := filekv.Open(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-1", v)
}

func TestFileKVEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	kv, err := filekv.Open(path)
	require.NoError(t, err)
	require.Equal(t, path, kv.Path())
}
