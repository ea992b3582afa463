package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts into its access tokens
type Claims struct {
	UserID    string `json:"sub"`
	CompanyID string `json:"company_id"`
	IsAdmin   bool   `json:"is_admin"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a token without verifying its signature. The client has
// no key; the server stays the authority and this is only used for local
// hints such as expiry and role.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an exp in the past
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// Elevated reports whether the token claims an operator role
func (c *Claims) Elevated() bool {
	return c.IsAdmin || c.Role == "admin" || c.Role == "super_admin"
}
