package client

import (
	"context"

	"github.com/travelsystem/tso/internal/cli/session"
)

// handleFault applies the auth failure policy and always returns apiErr.
//
// 401/403 on the session probe has no side effect: session bootstrap owns that
// recovery. Any other auth failure clears the session of the domain the user
// is currently sitting in (the location, not the request) and redirects to
// that domain's login screen unless already on an auth screen.
func (c *Client) handleFault(ctx context.Context, apiErr *APIError) error {
	if !apiErr.IsAuthFailure() {
		return apiErr
	}

	log := c.logger.With().
		Int("status", apiErr.Status).
		Str("path", apiErr.RequestPath).
		Str("request_domain", apiErr.Domain.String()).
		Logger()

	if session.IsSessionProbe(apiErr.RequestPath) {
		log.Debug().Msg("Session probe rejected, leaving recovery to bootstrap")
		return apiErr
	}

	if c.nav == nil {
		return apiErr
	}

	// Clearing must happen even if the caller's context is already done
	clearCtx := context.WithoutCancel(ctx)
	loc := c.nav.Location()

	switch session.Classify(loc) {
	case session.DomainPartner:
		if err := c.sessions.ClearCari(clearCtx); err != nil {
			log.Error().Err(err).Msg("Failed to clear cari session")
		}
		if !session.IsPartnerAuthScreen(loc) {
			c.nav.Redirect(session.PartnerLoginPath)
		}
	default:
		if err := c.sessions.ClearAdmin(clearCtx); err != nil {
			log.Error().Err(err).Msg("Failed to clear admin session")
		}
		if !session.IsAdminAuthScreen(loc) {
			c.nav.Redirect(session.AdminLoginPath)
		}
	}

	log.Info().Str("location", loc).Msg("Session rejected by backend")
	return apiErr
}
