package client

import (
	"context"
	"encoding/json"
	"net/url"
)

// Owner is the owning user of a customer tenant
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Customer is a tenant as seen by the operator console
type Customer struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	CompanyCode string `json:"company_code"`
	Email       string `json:"email"`
	Owner       *Owner `json:"owner"`
}

// ImpersonateRequest asks for a token scoped to a tenant's owning user
type ImpersonateRequest struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
}

// ImpersonateResponse carries the scoped session
type ImpersonateResponse struct {
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Company json.RawMessage `json:"company"`
}

// GetCustomer fetches a tenant with its owner
func (c *Client) GetCustomer(ctx context.Context, customerID string, opts ...RequestOption) (*Customer, error) {
	var customer Customer
	if err := c.get(ctx, "/admin/customers/"+url.PathEscape(customerID), &customer, opts...); err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListCustomers returns every tenant visible to the operator
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.get(ctx, "/admin/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// Impersonate exchanges the operator token for a tenant-scoped one. The
// operator token must be passed explicitly with WithBearer.
func (c *Client) Impersonate(ctx context.Context, req ImpersonateRequest, opts ...RequestOption) (*ImpersonateResponse, error) {
	var resp ImpersonateResponse
	if err := c.post(ctx, "/admin/impersonate", req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}
