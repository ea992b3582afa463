package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

const defaultStartPage = "/"

var (
	// ErrNoToken is returned when the backend accepts credentials but sends
	// no access token back
	ErrNoToken = errors.New("login response did not include an access token")
	// ErrNoChallenge is returned when a second factor is submitted without a
	// pending challenge
	ErrNoChallenge = errors.New("no pending two-factor challenge")
)

// Challenge is a pending second-factor step. Nothing is stored until it is
// completed.
type Challenge struct {
	TempToken string
}

// Result describes the outcome of an admin login
type Result struct {
	// Challenge is set when the account requires a second factor
	Challenge *Challenge
	User      session.User
	Company   session.Company
	StartPage string
}

// PartnerResult describes the outcome of a cari login
type PartnerResult struct {
	Cari    session.Cari
	Company session.Company
}

// Service logs users into either domain and out of them
type Service struct {
	client   *client.Client
	sessions *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates a login service on top of an API client
func NewService(c *client.Client, logger zerolog.Logger) *Service {
	return &Service{
		client:   c,
		sessions: c.Sessions(),
		validate: validator.New(),
		logger:   logger,
	}
}

// AdminLogin authenticates a staff user. When the account has two-factor
// authentication enabled the returned Result carries a Challenge and the
// session store is left untouched.
func (s *Service) AdminLogin(ctx context.Context, req client.LoginRequest) (*Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid login request: %w", err)
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Require2FA {
		if resp.TempToken == "" {
			return nil, fmt.Errorf("two-factor challenge without temporary token")
		}
		s.logger.Debug().Str("username", req.Username).Msg("Two-factor authentication required")
		return &Result{Challenge: &Challenge{TempToken: resp.TempToken}}, nil
	}

	return s.persistAdmin(ctx, resp)
}

// CompleteTwoFactor finishes a login that returned a Challenge
func (s *Service) CompleteTwoFactor(ctx context.Context, challenge *Challenge, code string) (*Result, error) {
	if challenge == nil || challenge.TempToken == "" {
		return nil, ErrNoChallenge
	}

	req := client.TwoFactorRequest{TempToken: challenge.TempToken, Code: code}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid verification code: %w", err)
	}

	resp, err := s.client.ValidateTwoFactor(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.persistAdmin(ctx, resp)
}

// PartnerLogin authenticates a cari account. Only partner keys are written.
func (s *Service) PartnerLogin(ctx context.Context, req client.CariLoginRequest) (*PartnerResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid login request: %w", err)
	}

	resp, err := s.client.CariLogin(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}

	sess := session.CariSession{
		Token:   resp.AccessToken,
		Cari:    resp.Cari,
		Company: resp.Company,
	}
	if err := s.sessions.SetCari(ctx, sess); err != nil {
		return nil, err
	}

	result := &PartnerResult{}
	if result.Cari, err = sess.DecodeCari(); err != nil {
		s.logger.Warn().Err(err).Msg("Unreadable cari profile")
	}
	if result.Company, err = sess.DecodeCompany(); err != nil {
		s.logger.Warn().Err(err).Msg("Unreadable cari company")
	}

	s.logger.Info().Str("cari", result.Cari.Name).Msg("Partner logged in")
	return result, nil
}

// Logout clears the session of one domain. Logging out of the admin domain
// also drops a pending impersonation hand-off.
func (s *Service) Logout(ctx context.Context, domain session.Domain) error {
	if err := s.sessions.Clear(ctx, domain); err != nil {
		return err
	}
	if domain == session.DomainAdmin {
		if err := s.sessions.ClearOperator(ctx); err != nil {
			return err
		}
	}
	s.logger.Info().Str("domain", domain.String()).Msg("Logged out")
	return nil
}

func (s *Service) persistAdmin(ctx context.Context, resp *client.LoginResponse) (*Result, error) {
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}

	sess := session.AdminSession{
		Token:   resp.AccessToken,
		User:    resp.User,
		Company: resp.Company,
	}
	if err := s.sessions.SetAdmin(ctx, sess); err != nil {
		return nil, err
	}
	// A fresh login ends any impersonation that was in progress
	if err := s.sessions.ClearOperator(ctx); err != nil {
		return nil, err
	}

	result := &Result{StartPage: defaultStartPage}
	var err error
	if result.User, err = sess.DecodeUser(); err != nil {
		s.logger.Warn().Err(err).Msg("Unreadable user profile")
	}
	if result.Company, err = sess.DecodeCompany(); err != nil {
		s.logger.Warn().Err(err).Msg("Unreadable company profile")
	}
	if result.User.Preferences.StartPage != "" {
		result.StartPage = result.User.Preferences.StartPage
	}

	s.logger.Info().
		Str("user", result.User.Username).
		Str("company", result.Company.DisplayName()).
		Msg("Logged in")
	return result, nil
}
