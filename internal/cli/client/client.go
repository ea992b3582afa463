package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/nav"
	"github.com/travelsystem/tso/internal/cli/session"
)

const defaultTimeout = 30 * time.Second

// Client represents an HTTP client for the TravelSystem Online API. Every
// request goes through the auth decorator and every failure through the auth
// fault handler.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Store
	nav        nav.Navigator
	logger     zerolog.Logger
}

// New creates a new API client for the backend at origin. The /api prefix is
// appended when origin does not already end with it.
func New(origin string, sessions *session.Store, navigator nav.Navigator, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:  apiBase(origin),
		sessions: sessions,
		nav:      navigator,
		logger:   logger,
	}
	c.SetHTTPClient(&http.Client{Timeout: defaultTimeout})
	return c
}

// SetHTTPClient sets a custom HTTP client. Its transport is wrapped with the
// auth decorator.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	hc := *httpClient
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if _, wrapped := base.(*authTransport); !wrapped {
		hc.Transport = &authTransport{base: base, sessions: c.sessions, logger: c.logger}
	}
	c.httpClient = &hc
}

// BaseURL returns the resolved API base (origin + /api)
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Sessions returns the session store the client decorates requests from
func (c *Client) Sessions() *session.Store {
	return c.sessions
}

// RequestOption customises a single request
type RequestOption func(*http.Request)

// WithBearer forces the Authorization header. The decorator leaves an
// explicit header untouched.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// Do sends a JSON request to path (relative to the API base, or absolute) and
// decodes a successful response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	target := c.resolve(path)
	apiPath := c.apiPath(target)
	domain := session.Classify(apiPath)
	ctx = withDomain(ctx, domain)

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleFault(ctx, &APIError{
			Kind:        KindNetwork,
			Message:     "could not reach backend",
			RequestPath: apiPath,
			Domain:      domain,
			Err:         err,
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return c.handleFault(ctx, newAPIError(resp.StatusCode, respBody, apiPath, domain))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// resolve normalises a relative path against the API base
func (c *Client) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	path = "/" + strings.TrimLeft(path, "/")
	path = strings.TrimPrefix(path, session.APIPrefix+"/")
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// apiPath returns target relative to the API base, so a backend mounted under
// a path prefix classifies the same as one at the root
func (c *Client) apiPath(target string) string {
	if rest, ok := strings.CutPrefix(target, c.baseURL); ok && (rest == "" || strings.ContainsRune("/?#", rune(rest[0]))) {
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		return "/" + strings.TrimLeft(rest, "/")
	}
	if u, err := url.Parse(target); err == nil {
		return u.Path
	}
	return target
}

func apiBase(origin string) string {
	base := strings.TrimRight(origin, "/")
	if !strings.HasSuffix(base, session.APIPrefix) {
		base += session.APIPrefix
	}
	return base
}
