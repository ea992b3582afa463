package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

var (
	// ErrCheckoutCancelled is returned when the browser came back through the
	// cancel URL
	ErrCheckoutCancelled = errors.New("checkout cancelled")
	// ErrActivationTimeout is returned when the module did not become active
	// in time
	ErrActivationTimeout = errors.New("timed out waiting for module activation")
)

// BrowserOpener opens a URL for the user
type BrowserOpener func(url string) error

// CheckoutOptions tune the checkout flow
type CheckoutOptions struct {
	CallbackAddr string
	AllowOrigin  string
	PollInterval time.Duration
	PollTimeout  time.Duration
	// OnURL is told the hosted checkout URL, so callers can print it when
	// the browser cannot be opened
	OnURL func(url string)
}

// Checkout runs a hosted module purchase end to end
type Checkout struct {
	api      API
	open     BrowserOpener
	opts     CheckoutOptions
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCheckout creates a checkout flow
func NewCheckout(api API, open BrowserOpener, opts CheckoutOptions, logger zerolog.Logger) *Checkout {
	if opts.CallbackAddr == "" {
		opts.CallbackAddr = "127.0.0.1:0"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Minute
	}
	return &Checkout{
		api:      api,
		open:     open,
		opts:     opts,
		validate: validator.New(),
		logger:   logger,
	}
}

// Buy purchases planID of module and waits until the company has the module
// enabled. Polling starts right away so a browser that never returns to the
// local endpoint still completes.
func (c *Checkout) Buy(ctx context.Context, module, planID string) (*session.Company, error) {
	callback := NewCallbackServer(c.opts.AllowOrigin, c.logger)
	if err := callback.Start(c.opts.CallbackAddr); err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := callback.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to stop checkout callback server")
		}
	}()

	req := client.CheckoutRequest{
		Module:     module,
		PlanID:     planID,
		SuccessURL: callback.SuccessURL(module),
		CancelURL:  callback.CancelURL(module),
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid checkout request: %w", err)
	}

	sess, err := c.api.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if sess.URL == "" {
		return nil, fmt.Errorf("checkout session could not be created")
	}

	c.logger.Info().Str("module", module).Str("plan", planID).Str("session_id", sess.SessionID).Msg("Checkout session created")
	if c.opts.OnURL != nil {
		c.opts.OnURL(sess.URL)
	}
	if c.open != nil {
		if err := c.open(sess.URL); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to open browser")
		}
	}

	return c.await(ctx, callback, module)
}

func (c *Checkout) await(ctx context.Context, callback *CallbackServer, module string) (*session.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PollTimeout)
	defer cancel()

	type polled struct {
		company *session.Company
		err     error
	}
	done := make(chan polled, 1)
	go func() {
		company, err := WaitForModule(ctx, c.api, module, c.opts.PollInterval, c.logger)
		done <- polled{company, err}
	}()

	for {
		select {
		case r := <-callback.Returns():
			if r.State == ReturnCancelled {
				cancel()
				<-done
				return nil, ErrCheckoutCancelled
			}
			c.logger.Info().Str("module", module).Msg("Payment confirmed by browser, waiting for activation")
		case p := <-done:
			if p.err != nil {
				if errors.Is(p.err, context.DeadlineExceeded) && ctx.Err() != nil {
					return nil, ErrActivationTimeout
				}
				return nil, p.err
			}
			return p.company, nil
		}
	}
}
