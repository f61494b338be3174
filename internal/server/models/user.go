package models

import (
	"slices"
	"strings"
	"time"
)

// Role is a capability granted to a user. Only the values below exist.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// DefaultRole is assigned to every newly registered user.
const DefaultRole = RoleUser

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole converts s into a known Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User is a registered identity.
//
// ConfirmationCode is empty once the email has been confirmed or when no
// code is outstanding. Email is always stored lower-cased.
type User struct {
	ID               int64
	UserName         string
	Email            string
	PasswordHash     string
	Roles            []Role
	EmailConfirmed   bool
	ConfirmationCode string
	CreatedAt        time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// RoleNames returns the roles as plain strings, e.g. for token claims.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = string(r)
	}
	return names
}

// Clone returns a deep copy, so stores can hand out users without sharing
// the roles slice.
func (u *User) Clone() *User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

// Public returns a copy with the password hash and confirmation code
// stripped, suitable for returning to callers.
func (u *User) Public() *User {
	c := u.Clone()
	c.PasswordHash = ""
	c.ConfirmationCode = ""
	return c
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
