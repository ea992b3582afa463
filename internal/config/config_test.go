package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, dir string, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadWith(context.Background(), Options{
		Dir:        dir,
		Lookuper:   envconfig.MapLookuper(env),
		SkipDotEnv: true,
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "default", cfg.Storage.Namespace)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Store.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Store.PollTimeout)
	assert.Equal(t, "127.0.0.1:0", cfg.Store.CallbackAddr)
	assert.Equal(t, "@every 5m", cfg.Revalidate.Schedule)
	assert.Empty(t, cfg.ProjectFile)
}

func TestLoad_Environment(t *testing.T) {
	cfg, err := load(t, t.TempDir(), map[string]string{
		"TSO_BACKEND_URL":     "https://api.travelsystem.example",
		"TSO_STORAGE_BACKEND": "redis",
		"TSO_REDIS_DB":        "3",
		"TSO_POLL_INTERVAL":   "500ms",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.travelsystem.example", cfg.BackendURL)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Storage.RedisDB)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.PollInterval)
}

func TestLoad_ProjectFileFoundUpwards(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte(`
backend_url: https://staging.travelsystem.example
storage:
  backend: sqlite
  path: /tmp/tso-sessions.db
store:
  poll_interval: 3s
`), 0644))

	cfg, err := load(t, nested, map[string]string{
		"TSO_BACKEND_URL": "https://override.example",
	})
	require.NoError(t, err)

	// Environment wins over the file, the file wins over defaults
	assert.Equal(t, "https://override.example", cfg.BackendURL)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/tso-sessions.db", cfg.Storage.Path)
	assert.Equal(t, 3*time.Second, cfg.Store.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Store.PollTimeout)
	assert.Equal(t, filepath.Join(root, ProjectFileName), cfg.ProjectFile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"backend url":   {"TSO_BACKEND_URL": "not a url"},
		"storage":       {"TSO_STORAGE_BACKEND": "floppy"},
		"log format":    {"TSO_LOG_FORMAT": "xml"},
		"poll window":   {"TSO_POLL_INTERVAL": "10m", "TSO_POLL_TIMEOUT": "1m"},
		"poll interval": {"TSO_POLL_INTERVAL": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(t, t.TempDir(), env)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadProjectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("storage: ["), 0644))

	_, err := load(t, dir, nil)
	assert.Error(t, err)
}

func TestFindProjectFile_Missing(t *testing.T) {
	_, err := FindProjectFile(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
