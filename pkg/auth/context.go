// Package auth provides authentication and authorization contexts for
// services. A context describes the authenticated user and is established
// from a bearer token by a Provider, typically the JWT-based one in this
// package. HTTP middleware policies attach contexts to requests.
package auth

import (
	"strings"

	"github.com/genomearc/servicekit/pkg/utcdates"
)

// AcademicTitle is an optional title carried in the auth context.
type AcademicTitle string

// Academic titles supported by the archive.
const (
	TitleDr   AcademicTitle = "Dr."
	TitleProf AcademicTitle = "Prof."
)

// UserStatus describes whether a user account is usable.
type UserStatus string

// User states.
const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// Context is the archive-wide authentication and authorization context.
type Context struct {
	// Name is the full name of the user.
	Name string `json:"name"`
	// Email is the preferred email address of the user.
	Email string `json:"email"`
	// Title is an optional academic title.
	Title AcademicTitle `json:"title,omitempty"`
	// IssuedAt is when the context was issued.
	IssuedAt utcdates.UTC `json:"iat"`
	// Expires is when the context expires.
	Expires utcdates.UTC `json:"exp"`
	// ID is the internal user ID, empty for unregistered users.
	ID string `json:"id,omitempty"`
	// ExtID is the external (identity provider) user ID.
	ExtID string `json:"ext_id,omitempty"`
	// Role is the role of the user, optionally scoped as "role@domain".
	Role string `json:"role,omitempty"`
	// Status is the registration state of the user.
	Status UserStatus `json:"status,omitempty"`
}

// IsActive reports whether the context belongs to an active user.
func IsActive(ctx Context) bool {
	return ctx.Status == StatusActive
}

// HasRole reports whether the context carries the given role. A context
// role may be scoped with an "@domain" suffix: asking for the bare role
// matches any scope, asking for a scoped role matches only exactly.
// Inactive users never have roles.
func HasRole(ctx Context, role string) bool {
	if !IsActive(ctx) {
		return false
	}
	if ctx.Role == role {
		return true
	}
	if strings.Contains(role, "@") {
		return false
	}
	base, _, found := strings.Cut(ctx.Role, "@")
	return found && base == role
}
