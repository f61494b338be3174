// Package common defines shared constants and sentinel errors used across the
// server, transport and client layers of authkeeper. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Identity uniqueness errors, raised by the store's unique constraints.
	ErrDuplicateUsername = errors.New("username is already taken")
	ErrDuplicateEmail    = errors.New("email is already in use")

	// Credential and confirmation errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrAlreadyConfirmed   = errors.New("email is already confirmed")
	ErrEmailNotConfirmed  = errors.New("email is not confirmed")

	// Session token errors.
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("token signature is invalid")
	ErrMalformedToken = errors.New("token is malformed")

	// Authorization and input errors.
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation error")
)

// ErrNotFound is an alias kept for readability at call sites dealing with identities.
var ErrNotFound = ErrorNotFound
