// Package bootstrap decides, once per start (or on demand), whether the stored
// admin session is still valid.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/nav"
	"github.com/travelsystem/tso/internal/cli/session"
)

// State is the bootstrap state machine position
type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Settled reports whether the state is a final one
func (s State) Settled() bool {
	return s == StateAuthenticated || s == StateUnauthenticated
}

// ErrSuperseded is returned by a run whose result was discarded because a
// newer run started
var ErrSuperseded = errors.New("bootstrap superseded by a newer run")

// Prober validates the stored admin token
type Prober interface {
	Me(ctx context.Context) (*client.MeResponse, error)
}

// SettleFunc is called every time a run settles
type SettleFunc func(State)

// Bootstrapper runs the session check. Only the latest run may apply its
// result; older or cancelled runs leave state and storage alone.
type Bootstrapper struct {
	prober   Prober
	sessions *session.Store
	nav      nav.Navigator
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	settled    chan struct{}
	listeners  []SettleFunc
}

// New creates a bootstrapper that probes through c
func New(c *client.Client, navigator nav.Navigator, logger zerolog.Logger) *Bootstrapper {
	return NewWithProber(c, c.Sessions(), navigator, logger)
}

// NewWithProber creates a bootstrapper with an explicit prober
func NewWithProber(prober Prober, sessions *session.Store, navigator nav.Navigator, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		prober:   prober,
		sessions: sessions,
		nav:      navigator,
		logger:   logger,
		settled:  make(chan struct{}),
	}
}

// State returns the current state
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnSettle registers fn to be called after each settled run
func (b *Bootstrapper) OnSettle(fn SettleFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Wait blocks until the in-flight run settles (or is abandoned) or ctx is done
func (b *Bootstrapper) Wait(ctx context.Context) (State, error) {
	b.mu.Lock()
	ch := b.settled
	b.mu.Unlock()

	select {
	case <-ch:
		return b.State(), nil
	case <-ctx.Done():
		return b.State(), ctx.Err()
	}
}

// outcome is what a run wants to apply once it knows it is still current
type outcome struct {
	state   State
	refresh *session.AdminSession
	clear   bool
	reason  string
}

// Run performs one session check. The returned error is ErrSuperseded when a
// newer run started meanwhile, ctx.Err() when ctx ended first, or a storage
// failure. A rejected or unreachable probe is not an error: it settles as
// unauthenticated.
func (b *Bootstrapper) Run(ctx context.Context) (State, error) {
	gen := b.begin()
	log := b.logger.With().Uint64("generation", gen).Logger()

	out, err := b.check(ctx)
	if err != nil {
		return b.abandon(gen, err)
	}
	if ctx.Err() != nil {
		return b.abandon(gen, ctx.Err())
	}

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		log.Debug().Msg("Discarding superseded bootstrap result")
		return StateUnknown, ErrSuperseded
	}

	// Storage is written under the lock so a newer run cannot interleave
	// with this one's writes
	applyCtx := context.WithoutCancel(ctx)
	var applyErr error
	switch {
	case out.refresh != nil:
		applyErr = b.sessions.SetAdmin(applyCtx, *out.refresh)
	case out.clear:
		applyErr = b.sessions.ClearAdmin(applyCtx)
	}
	if applyErr != nil {
		out.state = StateUnauthenticated
	}
	b.state = out.state
	b.closeSettled()
	listeners := append([]SettleFunc(nil), b.listeners...)
	b.mu.Unlock()

	log.Debug().Str("state", out.state.String()).Str("reason", out.reason).Msg("Session bootstrap settled")
	for _, fn := range listeners {
		fn(out.state)
	}

	if applyErr != nil {
		return out.state, fmt.Errorf("failed to apply session check: %w", applyErr)
	}
	return out.state, nil
}

// check decides the outcome without touching shared state
func (b *Bootstrapper) check(ctx context.Context) (outcome, error) {
	if b.nav != nil && session.Classify(b.nav.Location()) == session.DomainPartner {
		return outcome{state: StateUnauthenticated, reason: "partner location"}, nil
	}

	admin, err := b.sessions.Admin(ctx)
	if err != nil {
		return outcome{}, err
	}
	if admin.Token == "" {
		return outcome{state: StateUnauthenticated, reason: "no token"}, nil
	}
	// opaque tokens are left to the server
	if claims, err := session.ParseClaims(admin.Token); err == nil && claims.Expired(time.Now()) {
		return outcome{state: StateUnauthenticated, clear: true, reason: "token expired"}, nil
	}

	resp, err := b.prober.Me(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{}, ctx.Err()
		}
		return outcome{state: StateUnauthenticated, clear: true, reason: client.Message(err, err.Error())}, nil
	}
	if !resp.Complete() {
		return outcome{state: StateUnauthenticated, clear: true, reason: "incomplete profile"}, nil
	}

	return outcome{
		state: StateAuthenticated,
		refresh: &session.AdminSession{
			Token:       admin.Token,
			User:        resp.User,
			Company:     resp.Company,
			IsAdminView: admin.IsAdminView,
		},
		reason: "probe accepted",
	}, nil
}

func (b *Bootstrapper) begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	if b.isSettled() {
		b.settled = make(chan struct{})
	}
	b.state = StateChecking
	return b.generation
}

// abandon ends a run that produced no result. Only the current run moves the
// state back to unknown.
func (b *Bootstrapper) abandon(gen uint64, err error) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return StateUnknown, ErrSuperseded
	}
	b.state = StateUnknown
	b.closeSettled()
	return StateUnknown, err
}

func (b *Bootstrapper) isSettled() bool {
	select {
	case <-b.settled:
		return true
	default:
		return false
	}
}

func (b *Bootstrapper) closeSettled() {
	if !b.isSettled() {
		close(b.settled)
	}
}
