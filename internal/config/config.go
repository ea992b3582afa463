package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// ProjectFileName is the optional per-project configuration file
const ProjectFileName = "tso.yaml"

// Storage backends
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Config holds all configuration for the CLI
type Config struct {
	// BackendURL is the backend origin; the API lives under /api
	BackendURL string `yaml:"backend_url" env:"TSO_BACKEND_URL, overwrite, default=http://localhost:8000" validate:"required,url"`

	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Revalidate RevalidateConfig `yaml:"revalidate"`

	// ProjectFile is the tso.yaml that was applied, if any
	ProjectFile string `yaml:"-"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"TSO_LOG_LEVEL, overwrite, default=warn" validate:"oneof=debug info warn warning error off"`
	Format string `yaml:"format" env:"TSO_LOG_FORMAT, overwrite, default=console" validate:"oneof=json console"`
}

// StorageConfig selects where sessions are kept
type StorageConfig struct {
	Backend   string `yaml:"backend" env:"TSO_STORAGE_BACKEND, overwrite, default=file" validate:"oneof=file keyring sqlite redis memory"`
	Path      string `yaml:"path" env:"TSO_STORAGE_PATH, overwrite"`
	RedisAddr string `yaml:"redis_addr" env:"TSO_REDIS_ADDR, overwrite, default=localhost:6379" validate:"required_if=Backend redis"`
	RedisDB   int    `yaml:"redis_db" env:"TSO_REDIS_DB, overwrite" validate:"min=0"`
	Namespace string `yaml:"namespace" env:"TSO_NAMESPACE, overwrite, default=default" validate:"required"`
}

// HTTPConfig tunes the API client
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TSO_HTTP_TIMEOUT, overwrite, default=30s" validate:"gt=0"`
}

// StoreConfig tunes the module checkout flow
type StoreConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"TSO_POLL_INTERVAL, overwrite, default=2s" validate:"gt=0"`
	PollTimeout  time.Duration `yaml:"poll_timeout" env:"TSO_POLL_TIMEOUT, overwrite, default=5m" validate:"gtfield=PollInterval"`
	CallbackAddr string        `yaml:"callback_addr" env:"TSO_CALLBACK_ADDR, overwrite, default=127.0.0.1:0" validate:"required"`
}

// RevalidateConfig schedules background session checks for `tso watch`
type RevalidateConfig struct {
	Schedule string `yaml:"schedule" env:"TSO_REVALIDATE_SCHEDULE, overwrite, default=@every 5m" validate:"required"`
}

// Options control where Load looks
type Options struct {
	// Dir is where the tso.yaml search starts; defaults to the working directory
	Dir string
	// ProjectFile skips the search and uses this file
	ProjectFile string
	// Lookuper replaces the process environment
	Lookuper envconfig.Lookuper
	// SkipDotEnv disables .env loading
	SkipDotEnv bool
}

// Load loads configuration from .env files, the nearest tso.yaml and the
// environment, in increasing order of precedence
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, Options{})
}

// LoadWith is Load with explicit options
func LoadWith(ctx context.Context, opts Options) (*Config, error) {
	if !opts.SkipDotEnv {
		// Load .env files (fails silently if files don't exist)
		_ = godotenv.Load(".env")
		_ = godotenv.Load(".env.local")
	}

	cfg := &Config{}

	path := opts.ProjectFile
	if path == "" {
		found, err := FindProjectFile(opts.Dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		path = found
	}
	if path != "" {
		if err := readProjectFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ProjectFile = path
	}

	lookuper := opts.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FindProjectFile searches for tso.yaml in dir and its parents. It returns
// an error wrapping os.ErrNotExist when there is none.
func FindProjectFile(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}

	start := dir
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory: %w", ProjectFileName, start, os.ErrNotExist)
}

func readProjectFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
