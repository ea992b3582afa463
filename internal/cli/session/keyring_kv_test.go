package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringKV(t *testing.T) {
	keyring.MockInit()
	exerciseKV(t, NewKeyringKV("http://localhost:8000", NewMemoryKV()))
}

func TestKeyringKV_SplitsSecretsFromProfiles(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	fallback := NewMemoryKV()
	kv := NewKeyringKV("http://localhost:8000", fallback)

	require.NoError(t, kv.Set(ctx, KeyToken, "admin-jwt"))
	require.NoError(t, kv.Set(ctx, KeyCariToken, "cari-jwt"))
	require.NoError(t, kv.Set(ctx, KeyUser, `{"id":"u1"}`))
	require.NoError(t, kv.Set(ctx, KeyCari, `{"id":"p1"}`))

	// Tokens are in the keychain only
	secret, err := keyring.Get(keyringService, kv.keyringKey(KeyToken))
	require.NoError(t, err)
	assert.Equal(t, "admin-jwt", secret)
	secret, err = keyring.Get(keyringService, kv.keyringKey(KeyCariToken))
	require.NoError(t, err)
	assert.Equal(t, "cari-jwt", secret)
	assert.ElementsMatch(t, []string{KeyUser, KeyCari}, fallback.Keys())

	// Profiles are in the fallback only
	_, err = keyring.Get(keyringService, kv.keyringKey(KeyUser))
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	v, ok, err := kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u1"}`, v)

	// One delete call fans out to both stores
	require.NoError(t, kv.Delete(ctx, KeyToken, KeyUser, KeyOperatorToken))

	_, err = keyring.Get(keyringService, kv.keyringKey(KeyToken))
	assert.ErrorIs(t, err, keyring.ErrNotFound)
	assert.Equal(t, []string{KeyCari}, fallback.Keys())

	v, ok, err = kv.Get(ctx, KeyCariToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cari-jwt", v)
}

func TestKeyringKV_NamespacesAreIsolated(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	prod := NewKeyringKV("https://tso.example", NewMemoryKV())
	staging := NewKeyringKV("https://staging.tso.example", NewMemoryKV())

	require.NoError(t, prod.Set(ctx, KeyToken, "prod-jwt"))

	_, ok, err := staging.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := prod.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "prod-jwt", v)
}
