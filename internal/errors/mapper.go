package errors

import (
	"context"
	"database/sql"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts core/infra errors into gRPC-friendly status errors.
// Keeps the service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var unexpected *UnexpectedTypeError

	switch {
	case IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrDomainState):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, sql.ErrNoRows):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	case errors.Is(err, ErrNoConnection), errors.As(err, &unexpected):
		// developer errors never leak their details to clients
		return status.Error(codes.Internal, "internal error")

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
