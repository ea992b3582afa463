package session

// Storage keys. These are the only names the session store writes.
const (
	KeyToken       = "token"
	KeyUser        = "user"
	KeyCompany     = "company"
	KeyIsAdminView = "is_admin_view"

	KeyCariToken   = "cari_token"
	KeyCari        = "cari"
	KeyCariCompany = "cari_company"

	KeyActiveModule = "activeModule"

	KeyOperatorToken   = "admin_token"
	KeyOperatorUser    = "admin_user"
	KeyOperatorCompany = "admin_company"
)

var (
	adminKeys    = []string{KeyToken, KeyUser, KeyCompany, KeyIsAdminView}
	partnerKeys  = []string{KeyCariToken, KeyCari, KeyCariCompany}
	operatorKeys = []string{KeyOperatorToken, KeyOperatorUser, KeyOperatorCompany}
)

// OperatorKeys returns the impersonation hand-off keys
func OperatorKeys() []string { return append([]string(nil), operatorKeys...) }

// IsSecretKey reports whether key holds a bearer token
func IsSecretKey(key string) bool {
	switch key {
	case KeyToken, KeyCariToken, KeyOperatorToken:
		return true
	}
	return false
}
