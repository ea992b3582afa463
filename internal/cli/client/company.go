package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/travelsystem/tso/internal/cli/session"
)

// MyCompanyResponse is the "my company" payload
type MyCompanyResponse struct {
	Company session.Company `json:"company"`
}

// Plan is one purchasable plan of a store module. Amount is in minor units.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval,omitempty"`
}

// StoreModule is a module offered in the store
type StoreModule struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
	Plans       []Plan `json:"plans"`
}

// CheckoutRequest asks the backend for a hosted checkout session
type CheckoutRequest struct {
	Module     string `json:"module" validate:"required"`
	PlanID     string `json:"plan_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

// CheckoutSession is the hosted checkout redirect
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// TourType is a partner-visible tour type
type TourType struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DurationHours float64 `json:"duration_hours"`
}

// CariCompanyInfo is the company info exposed to partners
type CariCompanyInfo struct {
	Name          string             `json:"name"`
	CurrencyRates map[string]float64 `json:"currency_rates"`
	Raw           json.RawMessage    `json:"-"`
}

// MyCompany returns the caller's company, including enabled modules
func (c *Client) MyCompany(ctx context.Context) (*MyCompanyResponse, error) {
	var resp MyCompanyResponse
	if err := c.get(ctx, "/companies/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListStoreModules lists the store catalogue
func (c *Client) ListStoreModules(ctx context.Context) ([]StoreModule, error) {
	var resp struct {
		Modules []StoreModule `json:"modules"`
	}
	if err := c.get(ctx, "/store/modules", &resp); err != nil {
		return nil, err
	}
	return resp.Modules, nil
}

// CreateCheckoutSession starts a hosted checkout for a module plan
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	var resp CheckoutSession
	if err := c.post(ctx, "/store/create-checkout-session", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CariCompanyInfo returns company info for the logged-in partner
func (c *Client) CariCompanyInfo(ctx context.Context) (*CariCompanyInfo, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/cari/company-info", &raw); err != nil {
		return nil, err
	}
	info := CariCompanyInfo{Raw: raw}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

// CariTourTypes lists tour types the partner may book
func (c *Client) CariTourTypes(ctx context.Context) ([]TourType, error) {
	var types []TourType
	if err := c.get(ctx, "/cari/tour-types", &types); err != nil {
		return nil, err
	}
	return types, nil
}
