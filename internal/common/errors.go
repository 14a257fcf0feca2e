package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError carries a stable code alongside the human message.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoImages          = errors.New("no images found in archive")
	ErrInternal          = errors.New("internal error")
)

// statusCodes is checked in order; the first sentinel found in the chain wins.
var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{ErrNotFound, codes.NotFound},
	{ErrInvalidInput, codes.InvalidArgument},
	{ErrUnsupportedFormat, codes.InvalidArgument},
	{ErrNoImages, codes.InvalidArgument},
	{ErrInternal, codes.Internal},
}

func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

// ToStatus maps an application error onto a gRPC status error. Errors that
// already carry a status pass through unchanged.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
