package domain

import "time"

// Role is the access tier gating page and action visibility.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleReporter  Role = "reporter"
	RoleMunicipal Role = "municipal"
	RoleAdmin     Role = "admin"
)

// Roles lists the canonical role set in ascending privilege order.
var Roles = []Role{RoleCitizen, RoleReporter, RoleMunicipal, RoleAdmin}

// ParseRole maps s onto the canonical role set.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r belongs to the canonical role set.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleReporter, RoleMunicipal, RoleAdmin:
		return true
	}
	return false
}

// SelfService reports whether r may be chosen at signup. Elevated roles are
// granted by an administrator only.
func (r Role) SelfService() bool {
	return r == RoleCitizen || r == RoleReporter
}

// DisplayName is the human label shown on the profile page.
func (r Role) DisplayName() string {
	switch r {
	case RoleCitizen:
		return "Citizen"
	case RoleReporter:
		return "Community Reporter"
	case RoleMunicipal:
		return "Municipal Officer"
	case RoleAdmin:
		return "Administrator"
	}
	return string(r)
}

// Description summarises what the role is for.
func (r Role) Description() string {
	switch r {
	case RoleCitizen:
		return "Report civic issues and track their resolution in your community."
	case RoleReporter:
		return "Help identify and report issues, earn rewards for your contributions."
	case RoleMunicipal:
		return "Manage and resolve civic issues in your jurisdiction."
	case RoleAdmin:
		return "Oversee the entire platform and manage users and departments."
	}
	return ""
}

// User is an account held by the session store: credentials plus the
// metadata supplied at signup.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Metadata     Metadata  `json:"user_metadata"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the persisted display record keyed by subject id. It may not
// exist yet for a freshly created account.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolvedUser is the display-ready user derived from a session and its
// profile (or the session metadata when no profile exists).
type ResolvedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}
