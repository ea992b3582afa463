package client

import (
	"context"
	"encoding/json"
)

// LoginRequest represents the admin login request body
type LoginRequest struct {
	CompanyCode string `json:"company_code,omitempty"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse represents the admin login response. When Require2FA is set
// only TempToken is filled.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        json.RawMessage `json:"user"`
	Company     json.RawMessage `json:"company"`
	Require2FA  bool            `json:"require2FA"`
	TempToken   string          `json:"tempToken"`
}

// TwoFactorRequest completes a login that required a second factor
type TwoFactorRequest struct {
	TempToken string `json:"tempToken" validate:"required"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
}

// MeResponse is the session probe payload
type MeResponse struct {
	User    json.RawMessage `json:"user"`
	Company json.RawMessage `json:"company"`
}

// Complete reports whether both user and company came back
func (m *MeResponse) Complete() bool {
	return present(m.User) && present(m.Company)
}

// CariLoginRequest represents the partner login request body
type CariLoginRequest struct {
	CompanyCode string `json:"company_code,omitempty"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// CariLoginResponse represents the partner login response
type CariLoginResponse struct {
	AccessToken string          `json:"access_token"`
	Cari        json.RawMessage `json:"cari"`
	Company     json.RawMessage `json:"company"`
}

// CariMeResponse is the partner profile payload
type CariMeResponse struct {
	Cari    json.RawMessage `json:"cari"`
	Company json.RawMessage `json:"company"`
}

// Login authenticates an admin/staff user
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateTwoFactor exchanges a temporary token and code for a full login
func (c *Client) ValidateTwoFactor(ctx context.Context, req TwoFactorRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/2fa/validate-login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me is the session probe: it validates the stored admin token
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if err := c.get(ctx, "/auth/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CariLogin authenticates a partner account
func (c *Client) CariLogin(ctx context.Context, req CariLoginRequest) (*CariLoginResponse, error) {
	var resp CariLoginResponse
	if err := c.post(ctx, "/cari/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CariMe returns the logged-in partner account and its company
func (c *Client) CariMe(ctx context.Context) (*CariMeResponse, error) {
	var resp CariMeResponse
	if err := c.get(ctx, "/cari/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
