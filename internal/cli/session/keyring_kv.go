package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "tso-cli"

// KeyringKV keeps bearer tokens in the OS keychain/credential manager and
// delegates every other key to a fallback KV.
type KeyringKV struct {
	namespace string
	fallback  KV
}

// NewKeyringKV creates a KeyringKV. namespace separates tokens of different
// backends (usually the backend origin).
func NewKeyringKV(namespace string, fallback KV) *KeyringKV {
	return &KeyringKV{namespace: namespace, fallback: fallback}
}

// keyringKey returns a unique keychain entry name per backend and key
func (k *KeyringKV) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", k.namespace, key)
}

func (k *KeyringKV) Get(ctx context.Context, key string) (string, bool, error) {
	if !IsSecretKey(key) {
		return k.fallback.Get(ctx, key)
	}

	value, err := keyring.Get(keyringService, k.keyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return value, true, nil
}

func (k *KeyringKV) Set(ctx context.Context, key, value string) error {
	if !IsSecretKey(key) {
		return k.fallback.Set(ctx, key, value)
	}

	if err := keyring.Set(keyringService, k.keyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *KeyringKV) Delete(ctx context.Context, keys ...string) error {
	var plain []string
	for _, key := range keys {
		if !IsSecretKey(key) {
			plain = append(plain, key)
			continue
		}
		if err := keyring.Delete(keyringService, k.keyringKey(key)); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue // Already deleted
			}
			return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
		}
	}

	if len(plain) == 0 {
		return nil
	}
	return k.fallback.Delete(ctx, plain...)
}
