package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts a service error into a gRPC status error. Field
// details travel as a BadRequest detail; internal errors are reduced to a
// generic message.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return withField(codes.InvalidArgument, err)
	case errors.Is(err, common.ErrDuplicate):
		return withField(codes.AlreadyExists, err)
	case errors.Is(err, common.ErrSessionExpired):
		return status.Error(codes.Unauthenticated, common.ErrSessionExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrAuthentication):
		return status.Error(codes.Unauthenticated, common.ErrAuthentication.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrUnavailable):
		return status.Error(codes.Unavailable, common.ErrUnavailable.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrInternal.Error())
	}
}

func withField(code codes.Code, err error) error {
	var fe *common.FieldError
	if !errors.As(err, &fe) {
		return status.Error(code, err.Error())
	}
	st := status.New(code, fe.Error())
	detailed, derr := st.WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: fe.Field, Description: fe.Err.Error()},
		},
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus maps a gRPC error back to the sentinel errors of package
// common, restoring FieldError detail when present.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.InvalidArgument:
		if field, desc, ok := fieldViolation(st); ok {
			return common.Invalid(field, strings.TrimPrefix(desc, common.ErrValidation.Error()+": "))
		}
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.AlreadyExists:
		if field, _, ok := fieldViolation(st); ok {
			return common.Duplicate(field)
		}
		return common.ErrDuplicate
	case codes.Unauthenticated, codes.PermissionDenied:
		switch st.Message() {
		case common.ErrSessionExpired.Error():
			return common.ErrSessionExpired
		case common.ErrInvalidToken.Error():
			return common.ErrInvalidToken
		}
		return common.ErrAuthentication
	case codes.NotFound:
		return common.ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return common.ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("%w: %s", common.ErrInternal, st.Message())
	}
}

func fieldViolation(st *status.Status) (field, desc string, ok bool) {
	for _, d := range st.Details() {
		br, isBR := d.(*errdetails.BadRequest)
		if !isBR || len(br.GetFieldViolations()) == 0 {
			continue
		}
		v := br.GetFieldViolations()[0]
		return v.GetField(), v.GetDescription(), true
	}
	return "", "", false
}
