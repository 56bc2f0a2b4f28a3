package analysis

import (
	"fmt"
	"log/slog"

	apperrors "mpdcli/internal/errors"
)

// RecoveryPolicy decides what a recovered panic becomes.
type RecoveryPolicy int

const (
	// PolicyPropagate converts a panic into a typed error.
	PolicyPropagate RecoveryPolicy = iota
	// PolicyZeroValue logs the panic and returns the zero value with no
	// error, for stages whose absence degrades the report instead of
	// aborting it.
	PolicyZeroValue
)

// WithRecovery runs one pipeline stage with panic recovery, applied where the
// pipeline is assembled rather than by re-wrapping functions at runtime. The
// outcome is an ordinary (value, error) pair.
func WithRecovery[T any](logger *slog.Logger, operation string, policy RecoveryPolicy, fn func() (T, error)) (result T, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("operation panicked",
				slog.String("operation", operation),
				slog.Any("panic", rec))

			var zero T
			result = zero
			if policy == PolicyZeroValue {
				err = nil
				return
			}
			err = apperrors.NewAppError(apperrors.ErrTypeInternal,
				fmt.Sprintf("%s panicked", operation), fmt.Errorf("%v", rec))
		}
	}()

	return fn()
}
