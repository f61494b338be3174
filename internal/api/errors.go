package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrDuplicateUsername, codes.AlreadyExists},
	{common.ErrDuplicateEmail, codes.AlreadyExists},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrBadSignature, codes.Unauthenticated},
	{common.ErrMalformedToken, codes.Unauthenticated},
	{common.ErrInvalidCode, codes.InvalidArgument},
	{common.ErrValidation, codes.InvalidArgument},
	{common.ErrAlreadyConfirmed, codes.FailedPrecondition},
	{common.ErrEmailNotConfirmed, codes.FailedPrecondition},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrForbidden, codes.PermissionDenied},
}

// ToStatus converts a service error into a gRPC status error. The status
// message is the sentinel's text so that FromStatus can restore it;
// validation errors keep their details after the sentinel text.
// Unrecognised errors become a bare Internal status.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			msg := sc.err.Error()
			if sc.err == common.ErrValidation {
				msg = err.Error()
			}
			return status.Error(sc.code, msg)
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

// FromStatus maps a gRPC status error produced by ToStatus back to the
// domain sentinel. Other errors are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	msg := st.Message()
	for _, sc := range statusCodes {
		if st.Code() != sc.code {
			continue
		}
		sentinel := sc.err.Error()
		if msg == sentinel {
			return sc.err
		}
		if sc.err == common.ErrValidation && strings.HasPrefix(msg, sentinel) {
			return fmt.Errorf("%w%s", common.ErrValidation, strings.TrimPrefix(msg, sentinel))
		}
	}
	if st.Code() == codes.Internal && msg == common.ErrorInternal.Error() {
		return common.ErrorInternal
	}
	return err
}
