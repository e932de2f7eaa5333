// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/store"
	"github.com/oggyb/buddyup/internal/utils/pagination"
)

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if rl, ok := domain.IsRateLimited(err); ok {
		return rateLimited(rl)
	}

	switch {
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())

	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, pagination.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, domain.ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, domain.ErrBlocked):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, store.ErrDuplicate):
		return status.Error(codes.AlreadyExists, "already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// rateLimited attaches RetryInfo so clients know when to try again.
func rateLimited(rl *domain.RateLimitedError) error {
	st := status.New(codes.ResourceExhausted, rl.Error())
	detailed, err := st.WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(rl.RetryAfter),
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
