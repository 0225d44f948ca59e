package domain

import "slices"

// Well-known users and roles.
const (
	UserAdministrator = "Administrator"
	UserGuest         = "Guest"

	RoleAdministrator = "Administrator"
	RoleSystemManager = "System Manager"
	RoleAll           = "All"
	RoleGuest         = "Guest"
)

// User is a stored principal with the roles it holds.
type User struct {
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Enabled  bool     `json:"enabled"`
	Roles    []string `json:"roles"`
}

// AuthContext identifies the caller of a service operation.
// It is resolved once per request and passed explicitly to services.
type AuthContext struct {
	User  string
	Roles []string
	// Lang is the negotiated UI language, e.g. "en" or "de".
	Lang string
	// IgnorePermissions lets trusted internal callers (setup, CLI) bypass
	// document-level edit checks. Role checks via OnlyFor still apply.
	IgnorePermissions bool
}

// IsAdministrator reports whether the caller is the built-in Administrator user.
func (a AuthContext) IsAdministrator() bool {
	return a.User == UserAdministrator
}

// HasRole reports whether the caller holds role. Administrator holds every role.
func (a AuthContext) HasRole(role string) bool {
	if a.IsAdministrator() {
		return true
	}
	return slices.Contains(a.Roles, role)
}

// HasAnyRole reports whether the caller holds at least one of roles.
func (a AuthContext) HasAnyRole(roles []string) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// OnlyFor returns ErrForbidden unless the caller holds one of roles.
func (a AuthContext) OnlyFor(roles ...string) error {
	if a.HasAnyRole(roles) {
		return nil
	}
	return ErrForbidden
}

// Language returns Lang, defaulting to "en".
func (a AuthContext) Language() string {
	if a.Lang == "" {
		return "en"
	}
	return a.Lang
}
