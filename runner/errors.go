package runner

import (
	"context"
	"errors"
	"net"

	"github.com/c360studio/storysynth/metrics"
)

// ErrValidation marks a failure caused by bad input or output rather than by
// the environment. Validation failures are never retried.
var ErrValidation = errors.New("validation failed")

// ValidationError wraps an error as a validation failure.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	return e.err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// NewValidationError wraps err as a validation failure.
func NewValidationError(err error) error {
	return &ValidationError{err: err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrValidation) || errors.As(err, &ve)
}

// Classify maps an error to a metrics category. Deadline errors are checked
// before net.Error because context.DeadlineExceeded satisfies that interface.
func Classify(err error) metrics.ErrorCategory {
	if err == nil {
		return metrics.ErrorOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ErrorTimeout
	}
	if IsValidation(err) {
		return metrics.ErrorValidation
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return metrics.ErrorNetwork
	}
	return metrics.ErrorOther
}
