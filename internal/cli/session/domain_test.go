package session

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Domain
	}{
		{name: "api cari endpoint", path: "/api/cari/tour-types", want: DomainPartner},
		{name: "absolute cari url", path: "https://tso.example.com/api/cari/reservations?x=1", want: DomainPartner},
		{name: "cari location", path: "/cari/dashboard", want: DomainPartner},
		{name: "cari login location", path: "/cari/login", want: DomainPartner},
		{name: "bare cari", path: "/cari", want: DomainPartner},
		{name: "legacy redirect", path: "/r/AB12CD", want: DomainPartner},
		{name: "cari accounts admin page", path: "/cari-accounts", want: DomainAdmin},
		{name: "cari accounts api", path: "/api/cari-accounts/42", want: DomainAdmin},
		{name: "reports", path: "/reports", want: DomainAdmin},
		{name: "bare r", path: "/r", want: DomainAdmin},
		{name: "root", path: "/", want: DomainAdmin},
		{name: "empty", path: "", want: DomainAdmin},
		{name: "session probe", path: "/api/auth/me", want: DomainAdmin},
		{name: "relative path", path: "cari/company-info", want: DomainPartner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/api/auth/me", want: "/auth/me"},
		{in: "http://localhost:8000/api/auth/me", want: "/auth/me"},
		{in: "/auth/me/", want: "/auth/me"},
		{in: "/login?next=/reports", want: "/login"},
		{in: "/api", want: "/"},
		{in: "/apix/thing", want: "/apix/thing"},
		{in: "", want: "/"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAuthScreens(t *testing.T) {
	if !IsAdminAuthScreen("/login") || !IsAdminAuthScreen("/register") {
		t.Error("expected /login and /register to be admin auth screens")
	}
	if IsAdminAuthScreen("/cari/login") {
		t.Error("cari login is not an admin auth screen")
	}
	if !IsPartnerAuthScreen("/cari/login") || !IsPartnerAuthScreen("/r/XYZ") {
		t.Error("expected /cari/login and /r/XYZ to be partner auth screens")
	}
	if IsPartnerAuthScreen("/cari/dashboard") {
		t.Error("cari dashboard is not an auth screen")
	}
}

func TestIsSessionProbe(t *testing.T) {
	if !IsSessionProbe("/api/auth/me") {
		t.Error("expected /api/auth/me to be the session probe")
	}
	if IsSessionProbe("/api/auth/login") {
		t.Error("login is not the session probe")
	}
}

func TestDomainString(t *testing.T) {
	if DomainAdmin.String() != "admin" || DomainPartner.String() != "cari" {
		t.Errorf("unexpected names: %s %s", DomainAdmin, DomainPartner)
	}
}
