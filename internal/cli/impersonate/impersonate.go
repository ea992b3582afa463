// Package impersonate lets an operator view the product as a customer tenant's
// owner and return to their own session afterwards.
package impersonate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

var (
	ErrNotLoggedIn            = errors.New("not logged in, run 'tso login' first")
	ErrInsufficientPrivilege  = errors.New("only administrators can view as a customer")
	ErrNoOwner                = errors.New("customer has no owning user")
	ErrOperatorSessionExpired = errors.New("operator session expired, log in again")
	ErrNotImpersonating       = errors.New("not viewing as a customer")
)

// API is the subset of the backend the service needs
type API interface {
	GetCustomer(ctx context.Context, customerID string, opts ...client.RequestOption) (*client.Customer, error)
	Impersonate(ctx context.Context, req client.ImpersonateRequest, opts ...client.RequestOption) (*client.ImpersonateResponse, error)
}

// Service implements "view as customer" and "return to operator"
type Service struct {
	api      API
	sessions *session.Store
	logger   zerolog.Logger
}

// NewService creates an impersonation service
func NewService(api API, sessions *session.Store, logger zerolog.Logger) *Service {
	return &Service{api: api, sessions: sessions, logger: logger}
}

// ViewAs replaces the admin session with one scoped to the owner of
// customerID. The operator's own session is kept in the operator slot until
// Return.
func (s *Service) ViewAs(ctx context.Context, customerID string) (*client.Customer, error) {
	current, err := s.sessions.Admin(ctx)
	if err != nil {
		return nil, err
	}
	if current.Token == "" {
		return nil, ErrNotLoggedIn
	}

	// Nested impersonation keeps the original operator in the slot, and the
	// privilege check applies to that operator, not the customer being viewed
	slot, err := s.sessions.Operator(ctx)
	if err != nil {
		return nil, err
	}
	fresh := slot.Empty()
	if fresh {
		slot = session.OperatorSlot{Token: current.Token, User: current.User, Company: current.Company}
	}
	if !s.elevated(slot) {
		return nil, ErrInsufficientPrivilege
	}
	saved := false
	if fresh {
		if err := s.sessions.SaveOperator(ctx, slot); err != nil {
			return nil, err
		}
		saved = true
	}

	customer, resp, err := s.exchange(ctx, customerID, slot.Token)
	if err != nil {
		if saved {
			if clearErr := s.sessions.ClearOperator(context.WithoutCancel(ctx)); clearErr != nil {
				s.logger.Error().Err(clearErr).Msg("Failed to discard operator slot")
			}
		}
		return nil, err
	}

	err = s.sessions.SetAdmin(ctx, session.AdminSession{
		Token:       resp.Token,
		User:        resp.User,
		Company:     resp.Company,
		IsAdminView: true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("customer_id", customer.ID).
		Str("company", customer.CompanyName).
		Msg("Viewing as customer")
	return customer, nil
}

// Return restores the operator's own session
func (s *Service) Return(ctx context.Context) error {
	slot, err := s.sessions.Operator(ctx)
	if err != nil {
		return err
	}
	if slot.Empty() {
		return ErrNotImpersonating
	}

	err = s.sessions.SetAdmin(ctx, session.AdminSession{
		Token:   slot.Token,
		User:    slot.User,
		Company: slot.Company,
	})
	if err != nil {
		return err
	}
	if err := s.sessions.ClearOperator(ctx); err != nil {
		return err
	}

	s.logger.Info().Msg("Returned to operator session")
	return nil
}

// Active reports whether an impersonation is in progress
func (s *Service) Active(ctx context.Context) (bool, error) {
	slot, err := s.sessions.Operator(ctx)
	if err != nil {
		return false, err
	}
	return !slot.Empty(), nil
}

func (s *Service) exchange(ctx context.Context, customerID, operatorToken string) (*client.Customer, *client.ImpersonateResponse, error) {
	bearer := client.WithBearer(operatorToken)

	customer, err := s.api.GetCustomer(ctx, customerID, bearer)
	if err != nil {
		return nil, nil, mapError(err)
	}
	if customer.Owner == nil || customer.Owner.ID == "" {
		return nil, nil, ErrNoOwner
	}

	resp, err := s.api.Impersonate(ctx, client.ImpersonateRequest{
		CompanyID: customer.ID,
		UserID:    customer.Owner.ID,
	}, bearer)
	if err != nil {
		return nil, nil, mapError(err)
	}
	if resp.Token == "" {
		return nil, nil, fmt.Errorf("impersonation response did not include a token")
	}
	return customer, resp, nil
}

// elevated is an optimistic client-side gate. The backend has the final say.
func (s *Service) elevated(operator session.OperatorSlot) bool {
	if user, err := operator.DecodeUser(); err == nil && user.Elevated() {
		return true
	}
	if claims, err := session.ParseClaims(operator.Token); err == nil && claims.Elevated() {
		return true
	}
	return false
}

func mapError(err error) error {
	switch client.StatusOf(err) {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoOwner, client.Message(err, "customer not found"))
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInsufficientPrivilege, client.Message(err, "forbidden"))
	case http.StatusUnauthorized:
		return ErrOperatorSessionExpired
	default:
		return err
	}
}
