package session

import (
	"net/url"
	"strings"
)

// Domain identifies which of the two authentication domains a request or a
// location belongs to.
type Domain int

const (
	// DomainAdmin is the staff/operator application and its API surface
	DomainAdmin Domain = iota
	// DomainPartner is the cari (B2B partner) self-service surface
	DomainPartner
)

func (d Domain) String() string {
	switch d {
	case DomainAdmin:
		return "admin"
	case DomainPartner:
		return "cari"
	default:
		return "unknown"
	}
}

// Well-known paths. Locations and API paths share the same namespace once the
// /api prefix is stripped.
const (
	APIPrefix = "/api"

	PartnerSegment       = "cari"
	LegacyPartnerSegment = "r"

	AdminLoginPath    = "/login"
	AdminRegisterPath = "/register"
	PartnerLoginPath  = "/cari/login"
	SessionProbePath  = "/auth/me"
)

// Classify is the single classification rule for both outgoing request paths
// and current locations. A path belongs to the partner domain when its first
// segment is "cari", or when it is a legacy /r/<code> link. Everything else,
// including look-alikes such as /cari-accounts, is admin.
func Classify(path string) Domain {
	segments := splitPath(path)
	if len(segments) == 0 {
		return DomainAdmin
	}

	switch segments[0] {
	case PartnerSegment:
		return DomainPartner
	case LegacyPartnerSegment:
		if len(segments) > 1 {
			return DomainPartner
		}
	}
	return DomainAdmin
}

// IsAdminAuthScreen reports whether loc is the admin login or register screen
func IsAdminAuthScreen(loc string) bool {
	p := Normalize(loc)
	return p == AdminLoginPath || p == AdminRegisterPath
}

// IsPartnerAuthScreen reports whether loc is the cari login screen or a legacy
// partner redirect path
func IsPartnerAuthScreen(loc string) bool {
	p := Normalize(loc)
	if p == PartnerLoginPath {
		return true
	}
	segments := splitPath(p)
	return len(segments) > 1 && segments[0] == LegacyPartnerSegment
}

// IsSessionProbe reports whether path targets the "who am I" endpoint
func IsSessionProbe(path string) bool {
	return Normalize(path) == SessionProbePath
}

// Normalize reduces an absolute URL, an /api-prefixed request path or a bare
// location to a clean path: no scheme/host, query, fragment, trailing slash or
// /api prefix.
func Normalize(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p == APIPrefix {
		p = "/"
	} else if strings.HasPrefix(p, APIPrefix+"/") {
		p = strings.TrimPrefix(p, APIPrefix)
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func splitPath(path string) []string {
	trimmed := strings.Trim(Normalize(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
