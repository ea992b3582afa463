package session

import (
	"encoding/json"
	"fmt"
)

// User is the subset of the server's user object the client reads
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	Role         string `json:"role"`
	Preferences  struct {
		StartPage string `json:"startPage"`
	} `json:"preferences"`
}

// Elevated reports whether the user may act on other tenants
func (u User) Elevated() bool {
	return u.IsAdmin || u.IsSuperAdmin || u.Role == "admin" || u.Role == "super_admin"
}

// DisplayName prefers the full name
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Company is the subset of the server's company object the client reads
type Company struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CompanyName    string          `json:"company_name"`
	Code           string          `json:"code"`
	CompanyCode    string          `json:"company_code"`
	ModulesEnabled map[string]bool `json:"modules_enabled"`
}

// DisplayName returns whichever name field the server filled
func (c Company) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CompanyName
}

// Cari is the subset of the partner account object the client reads
type Cari struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PickupLocation string `json:"pickup_location"`
	PickupMapsLink string `json:"pickup_maps_link"`
}

// DecodeUser parses the stored user object
func (s AdminSession) DecodeUser() (User, error) {
	var u User
	if err := decodeRaw(s.User, &u); err != nil {
		return User{}, fmt.Errorf("failed to parse stored user: %w", err)
	}
	return u, nil
}

// DecodeCompany parses the stored company object
func (s AdminSession) DecodeCompany() (Company, error) {
	var c Company
	if err := decodeRaw(s.Company, &c); err != nil {
		return Company{}, fmt.Errorf("failed to parse stored company: %w", err)
	}
	return c, nil
}

// DecodeCari parses the stored partner account
func (s CariSession) DecodeCari() (Cari, error) {
	var c Cari
	if err := decodeRaw(s.Cari, &c); err != nil {
		return Cari{}, fmt.Errorf("failed to parse stored cari: %w", err)
	}
	return c, nil
}

// DecodeCompany parses the stored partner company
func (s CariSession) DecodeCompany() (Company, error) {
	var c Company
	if err := decodeRaw(s.Company, &c); err != nil {
		return Company{}, fmt.Errorf("failed to parse stored cari company: %w", err)
	}
	return c, nil
}

// DecodeUser parses the operator's stored user object
func (s OperatorSlot) DecodeUser() (User, error) {
	var u User
	if err := decodeRaw(s.User, &u); err != nil {
		return User{}, fmt.Errorf("failed to parse operator user: %w", err)
	}
	return u, nil
}

func decodeRaw(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
