package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

// CompanyAPI fetches the caller's company
type CompanyAPI interface {
	MyCompany(ctx context.Context) (*client.MyCompanyResponse, error)
}

// WaitForModule polls the company every interval until module is enabled or
// ctx ends. Transient failures are logged and the next tick tries again; an
// auth failure ends the wait since the session is gone.
func WaitForModule(ctx context.Context, api CompanyAPI, module string, interval time.Duration, logger zerolog.Logger) (*session.Company, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := api.MyCompany(ctx)
		switch {
		case err == nil:
			if resp.Company.ModulesEnabled[module] {
				return &resp.Company, nil
			}
			logger.Debug().Str("module", module).Msg("Module not active yet")
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.IsAuthFailure() {
				return nil, err
			}
			logger.Warn().Err(err).Str("module", module).Msg("Module check failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
