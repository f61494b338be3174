package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Metrics receives one observation per finished AuthService operation.
type Metrics interface {
	ObserveOperation(operation, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string) {}

var outcomes = []struct {
	err   error
	label string
}{
	{common.ErrDuplicateUsername, "duplicate_username"},
	{common.ErrDuplicateEmail, "duplicate_email"},
	{common.ErrInvalidCredentials, "invalid_credentials"},
	{common.ErrInvalidCode, "invalid_code"},
	{common.ErrAlreadyConfirmed, "already_confirmed"},
	{common.ErrEmailNotConfirmed, "email_not_confirmed"},
	{common.ErrNotFound, "not_found"},
	{common.ErrTokenExpired, "token_expired"},
	{common.ErrBadSignature, "bad_signature"},
	{common.ErrMalformedToken, "malformed_token"},
	{common.ErrForbidden, "forbidden"},
	{common.ErrValidation, "validation"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "deadline_exceeded"},
}

// Outcome turns an operation result into a bounded metric label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "internal"
}
