package auth

import (
	"context"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

// Authenticator defines the login operations commands depend on.
// This allows us to mock the backend in command tests.
type Authenticator interface {
	AdminLogin(ctx context.Context, req client.LoginRequest) (*Result, error)
	CompleteTwoFactor(ctx context.Context, challenge *Challenge, code string) (*Result, error)
	PartnerLogin(ctx context.Context, req client.CariLoginRequest) (*PartnerResult, error)
	Logout(ctx context.Context, domain session.Domain) error
}

var _ Authenticator = (*Service)(nil)
