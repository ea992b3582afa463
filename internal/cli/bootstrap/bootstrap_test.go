package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/nav"
	"github.com/travelsystem/tso/internal/cli/session"
)

type harness struct {
	kv       *session.MemoryKV
	sessions *session.Store
	router   *nav.Router
	calls    *atomic.Int32
	boot     *Bootstrapper
}

func newHarness(t *testing.T, location string, handler http.HandlerFunc) *harness {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	kv := session.NewMemoryKV()
	sessions := session.NewStore(kv, zerolog.Nop())
	router := nav.NewRouter(location)
	c := client.New(server.URL, sessions, router, zerolog.Nop())

	return &harness{
		kv:       kv,
		sessions: sessions,
		router:   router,
		calls:    calls,
		boot:     New(c, router, zerolog.Nop()),
	}
}

func (h *harness) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.sessions.SetAdmin(ctx, session.AdminSession{
		Token:       "T",
		User:        json.RawMessage(`{"id":"u1","username":"stale"}`),
		Company:     json.RawMessage(`{"id":"c1"}`),
		IsAdminView: true,
	}))
	require.NoError(t, h.sessions.SetCari(ctx, session.CariSession{Token: "C"}))
}

func (h *harness) keys() []string {
	keys := h.kv.Keys()
	sort.Strings(keys)
	return keys
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestRun_AuthenticatedRefreshesProfile(t *testing.T) {
	h := newHarness(t, "/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		respond(http.StatusOK, `{"user":{"id":"u1","username":"fresh"},"company":{"id":"c1","name":"Acme"}}`)(w, r)
	})
	h.seed(t)

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, StateAuthenticated, h.boot.State())

	admin, err := h.sessions.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T", admin.Token)
	assert.True(t, admin.IsAdminView)
	user, err := admin.DecodeUser()
	require.NoError(t, err)
	assert.Equal(t, "fresh", user.Username)
}

func TestRun_ForbiddenClearsAdminWithoutRedirect(t *testing.T) {
	h := newHarness(t, "/reports", respond(http.StatusForbidden, `{"detail":"Not authenticated"}`))
	h.seed(t)

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, []string{session.KeyCariToken}, h.keys())
	assert.Empty(t, h.router.Redirects())
	assert.Equal(t, "/reports", h.router.Location())
}

func TestRun_IncompleteProfileClearsAdmin(t *testing.T) {
	h := newHarness(t, "/", respond(http.StatusOK, `{"user":{"id":"u1"}}`))
	h.seed(t)

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, []string{session.KeyCariToken}, h.keys())
}

func TestRun_ServerErrorClearsAdmin(t *testing.T) {
	h := newHarness(t, "/", respond(http.StatusInternalServerError, `oops`))
	h.seed(t)

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, []string{session.KeyCariToken}, h.keys())
}

func TestRun_PartnerLocationSkipsNetwork(t *testing.T) {
	for _, loc := range []string{"/cari/login", "/cari/dashboard", "/r/ACME"} {
		t.Run(loc, func(t *testing.T) {
			h := newHarness(t, loc, respond(http.StatusOK, `{}`))
			h.seed(t)

			state, err := h.boot.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StateUnauthenticated, state)
			assert.Zero(t, h.calls.Load())
			assert.Len(t, h.keys(), 5)
		})
	}
}

func TestRun_NoTokenSkipsNetwork(t *testing.T) {
	h := newHarness(t, "/", respond(http.StatusOK, `{}`))

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Zero(t, h.calls.Load())
}

func signedAdminToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	return token
}

func TestRun_ExpiredTokenClearsWithoutNetwork(t *testing.T) {
	h := newHarness(t, "/dashboard", respond(http.StatusOK, `{"user":{"id":"u1"},"company":{"id":"c1"}}`))
	h.seed(t)
	require.NoError(t, h.kv.Set(context.Background(), session.KeyToken, signedAdminToken(t, time.Now().Add(-time.Minute))))

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Zero(t, h.calls.Load())
	assert.Equal(t, []string{session.KeyCariToken}, h.keys())
	assert.Empty(t, h.router.Redirects())
}

func TestRun_UnexpiredTokenStillChecksServer(t *testing.T) {
	token := signedAdminToken(t, time.Now().Add(time.Hour))
	h := newHarness(t, "/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		respond(http.StatusOK, `{"user":{"id":"u1","username":"fresh"},"company":{"id":"c1"}}`)(w, r)
	})
	h.seed(t)
	require.NoError(t, h.kv.Set(context.Background(), session.KeyToken, token))

	state, err := h.boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.EqualValues(t, 1, h.calls.Load())
}

func TestRun_CancelledLeavesStorageAlone(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, "/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		respond(http.StatusUnauthorized, `{}`)(w, r)
	})
	defer close(release)
	h.seed(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	state, err := h.boot.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateUnknown, state)
	assert.Equal(t, StateUnknown, h.boot.State())
	assert.Len(t, h.keys(), 5)
}

// scriptedProber returns queued responses, each after its gate opens
type scriptedProber struct {
	steps chan step
}

type step struct {
	gate <-chan struct{}
	resp *client.MeResponse
	err  error
}

func (p *scriptedProber) Me(ctx context.Context) (*client.MeResponse, error) {
	s := <-p.steps
	if s.gate != nil {
		<-s.gate
	}
	return s.resp, s.err
}

func TestRun_SupersededResultIsDiscarded(t *testing.T) {
	kv := session.NewMemoryKV()
	sessions := session.NewStore(kv, zerolog.Nop())
	require.NoError(t, sessions.SetAdmin(context.Background(), session.AdminSession{
		Token:   "T",
		User:    json.RawMessage(`{"id":"u1"}`),
		Company: json.RawMessage(`{"id":"c1"}`),
	}))

	prober := &scriptedProber{steps: make(chan step, 2)}
	boot := NewWithProber(prober, sessions, nav.NewRouter("/"), zerolog.Nop())

	var settled []State
	boot.OnSettle(func(s State) { settled = append(settled, s) })

	// First run gets a late rejection
	gate := make(chan struct{})
	prober.steps <- step{gate: gate, err: &client.APIError{Kind: client.KindAuthentication, Status: http.StatusUnauthorized}}

	type result struct {
		state State
		err   error
	}
	first := make(chan result, 1)
	go func() {
		s, err := boot.Run(context.Background())
		first <- result{s, err}
	}()

	require.Eventually(t, func() bool { return len(prober.steps) == 0 }, time.Second, time.Millisecond)

	// Second run starts and settles authenticated
	prober.steps <- step{resp: &client.MeResponse{
		User:    json.RawMessage(`{"id":"u1","username":"new"}`),
		Company: json.RawMessage(`{"id":"c1"}`),
	}}
	state, err := boot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)

	close(gate)
	r := <-first
	assert.ErrorIs(t, r.err, ErrSuperseded)

	assert.Equal(t, StateAuthenticated, boot.State())
	token, err := sessions.Token(context.Background(), session.DomainAdmin)
	require.NoError(t, err)
	assert.Equal(t, "T", token)
	assert.Equal(t, []State{StateAuthenticated}, settled)
}

func TestWait(t *testing.T) {
	prober := &scriptedProber{steps: make(chan step, 1)}
	sessions := session.NewStore(session.NewMemoryKV(), zerolog.Nop())
	boot := NewWithProber(prober, sessions, nav.NewRouter("/"), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := boot.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateUnknown, state)

	go boot.Run(context.Background())

	state, err = boot.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.True(t, StateAuthenticated.Settled())
	assert.False(t, StateChecking.Settled())
}
