package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/auth"
	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/nav"
	"github.com/travelsystem/tso/internal/cli/session"
	"github.com/travelsystem/tso/internal/cli/store"
	"github.com/travelsystem/tso/internal/config"
)

// Env is everything a command needs at run time
type Env struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Sessions *session.Store
	Router   *nav.Router
	Client   *client.Client
	Auth     auth.Authenticator
	Prompt   Prompter
	Open     store.BrowserOpener
	Out      io.Writer
	ErrOut   io.Writer

	closers []func() error
}

// Factory builds the Env lazily so commands that need nothing (version) do
// not open storage
type Factory func(ctx context.Context) (*Env, error)

// NewEnv wires the session store, navigator and API client on top of kv
func NewEnv(cfg *config.Config, logger zerolog.Logger, kv session.KV, out, errOut io.Writer) *Env {
	sessions := session.NewStore(kv, logger)
	router := nav.NewRouter("/")

	c := client.New(cfg.BackendURL, sessions, router, logger)
	c.SetHTTPClient(newHTTPClient(cfg.HTTP.Timeout))

	env := &Env{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Router:   router,
		Client:   c,
		Auth:     auth.NewService(c, logger),
		Prompt:   terminalPrompter{out: errOut},
		Open:     openBrowser,
		Out:      out,
		ErrOut:   errOut,
	}
	router.OnRedirect(env.sessionExpired)
	return env
}

// Close releases storage connections
func (e *Env) Close() error {
	var errs []error
	for _, fn := range e.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnClose registers fn to run on Close
func (e *Env) OnClose(fn func() error) {
	e.closers = append(e.closers, fn)
}

// sessionExpired is the redirect side effect: tell the user how to log back in
func (e *Env) sessionExpired(from, to string) {
	e.Logger.Debug().Str("from", from).Str("to", to).Msg("Redirected to login")
	if to == session.PartnerLoginPath {
		fmt.Fprintln(e.ErrOut, "Partner session expired. Run 'tso cari login' to sign in again.")
		return
	}
	fmt.Fprintln(e.ErrOut, "Session expired. Run 'tso login' to sign in again.")
}

// backendOrigin is the scheme and host of the configured backend
func (e *Env) backendOrigin() string {
	u, err := url.Parse(e.Config.BackendURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// OpenKV opens the configured storage backend. The returned close function
// is never nil.
func OpenKV(ctx context.Context, cfg config.StorageConfig) (session.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return session.NewMemoryKV(), noop, nil

	case config.BackendFile, "":
		path, err := storagePath(cfg, "session", ".json")
		if err != nil {
			return nil, nil, err
		}
		return session.NewFileKV(path), noop, nil

	case config.BackendKeyring:
		path, err := storagePath(cfg, "session", ".json")
		if err != nil {
			return nil, nil, err
		}
		return session.NewKeyringKV(cfg.Namespace, session.NewFileKV(path)), noop, nil

	case config.BackendSQLite:
		path, err := storagePath(cfg, "session", ".db")
		if err != nil {
			return nil, nil, err
		}
		kv, err := session.OpenSQLiteKV(path, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil

	case config.BackendRedis:
		kv, err := session.ConnectRedisKV(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// storagePath resolves the on-disk location for file based backends. A
// non-default namespace gets its own file.
func storagePath(cfg config.StorageConfig, base, ext string) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}

	defaultPath, err := session.DefaultFilePath()
	if err != nil {
		return "", err
	}
	name := base
	if cfg.Namespace != "" && cfg.Namespace != "default" {
		name += "-" + cfg.Namespace
	}
	return filepath.Join(filepath.Dir(defaultPath), name+ext), nil
}

// notifyError turns err into the single message shown to the user: the
// backend's own detail when it sent one, otherwise fallback
func notifyError(err error, fallback string) error {
	if err == nil {
		return nil
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &userError{msg: client.Message(err, fallback), err: err}
	}
	return fmt.Errorf("%s: %w", fallback, err)
}

type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// envOrFlag returns the flag value, falling back to an environment variable
func envOrFlag(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return strings.TrimSpace(os.Getenv(envKey))
}
