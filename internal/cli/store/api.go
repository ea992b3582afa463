// Package store implements the module store: catalogue, module switching and
// hosted checkout with a local return endpoint.
package store

import (
	"context"

	"github.com/travelsystem/tso/internal/cli/client"
)

// API is the subset of the backend the store needs
type API interface {
	MyCompany(ctx context.Context) (*client.MyCompanyResponse, error)
	ListStoreModules(ctx context.Context) ([]client.StoreModule, error)
	CreateCheckoutSession(ctx context.Context, req client.CheckoutRequest) (*client.CheckoutSession, error)
}

var _ API = (*client.Client)(nil)
