package client

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/session"
)

type domainKey struct{}

func withDomain(ctx context.Context, d session.Domain) context.Context {
	return context.WithValue(ctx, domainKey{}, d)
}

// DomainFromContext returns the domain the request was classified into
func DomainFromContext(ctx context.Context) (session.Domain, bool) {
	d, ok := ctx.Value(domainKey{}).(session.Domain)
	return d, ok
}

// authTransport is the request decorator. It attaches the bearer token of the
// request's own domain and nothing else; a missing token is not an error.
type authTransport struct {
	base     http.RoundTripper
	sessions *session.Store
	logger   zerolog.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	// Client.Do classifies relative to the API base; an unclassified request
	// is sent without credentials
	domain, classified := DomainFromContext(ctx)

	// RoundTrippers must not modify the caller's request
	out := req.Clone(ctx)

	explicit := out.Header.Get("Authorization") != ""
	attached := false
	if !explicit && classified && t.sessions != nil {
		token, err := t.sessions.Token(ctx, domain)
		if err != nil {
			t.logger.Warn().Err(err).Str("domain", domain.String()).Msg("Token unavailable, sending request unauthenticated")
		} else if token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
			attached = true
		}
	}

	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", ulid.Make().String())
	}
	if out.Header.Get("Accept") == "" {
		out.Header.Set("Accept", "application/json")
	}

	t.logger.Debug().
		Str("method", out.Method).
		Str("path", out.URL.Path).
		Str("domain", domain.String()).
		Bool("token_attached", attached).
		Bool("explicit_auth", explicit).
		Str("request_id", out.Header.Get("X-Request-ID")).
		Msg("API request")

	return t.base.RoundTrip(out)
}
