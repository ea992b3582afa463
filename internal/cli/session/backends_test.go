package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the same contract against every backend that works offline
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, KeyToken, "abc"))
	require.NoError(t, kv.Set(ctx, KeyUser, `{"id":"1"}`))
	require.NoError(t, kv.Set(ctx, KeyToken, "def"))

	v, ok, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def", v)

	require.NoError(t, kv.Delete(ctx, KeyToken, KeyCariToken))

	_, ok, err = kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, v)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv := NewFileKV(path)

	exerciseKV(t, kv)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second instance sees the persisted values
	other := NewFileKV(path)
	v, ok, err := other.Get(context.Background(), KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, v)
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileKV(path).Get(context.Background(), KeyToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}

func TestFileKV_ReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	kv := NewFileKV(path)
	ctx := context.Background()

	for _, token := range []string{"one", "two", "three"} {
		require.NoError(t, kv.Set(ctx, KeyToken, token))
	}
	require.NoError(t, kv.Delete(ctx, KeyToken))
	require.NoError(t, kv.Set(ctx, KeyCompany, `{"id":"c1"}`))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	v, ok, err := NewFileKV(path).Get(ctx, KeyCompany)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"c1"}`, v)
}

func TestSQLiteKV(t *testing.T) {
	kv, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "session.db"), "http://localhost:8000")
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestSQLiteKV_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	a, err := OpenSQLiteKV(path, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLiteKV(path, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, KeyToken, "from-a"))

	_, ok, err := b.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
