package waitlist

import (
	"errors"
	"fmt"

	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
)

// ErrorKind classifies every signup failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissing
	KindInvalidFormat
	KindDuplicate
	KindBackendUnavailable
	KindPersistenceFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInvalidFormat:
		return "invalid_format"
	case KindDuplicate:
		return "duplicate"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// The messages are returned to browsers verbatim.
var (
	ErrEmailRequired        = apperrors.NewInvalidRequestError("Email is required", nil)
	ErrInvalidEmailFormat   = apperrors.NewInvalidRequestError("Invalid email format", nil)
	ErrAlreadyOnWaitlist    = apperrors.NewConflictError("This email is already on the waitlist", nil)
	ErrBackendNotConfigured = apperrors.NewServiceUnavailableError("Backend not configured", nil)
	ErrJoinFailed           = apperrors.NewInternalServerError("Failed to join waitlist", nil)
)

const internalErrorMessage = "Internal server error"

// KindOf maps err onto the signup taxonomy. Errors that wrap none of the sentinels are KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrEmailRequired):
		return KindMissing
	case errors.Is(err, ErrInvalidEmailFormat):
		return KindInvalidFormat
	case errors.Is(err, ErrAlreadyOnWaitlist):
		return KindDuplicate
	case errors.Is(err, ErrBackendNotConfigured):
		return KindBackendUnavailable
	case errors.Is(err, ErrJoinFailed):
		return KindPersistenceFailure
	default:
		return KindUnknown
	}
}

// wrap attaches cause to sentinel so that both errors.Is and the AppError lookups resolve to the sentinel.
func wrap(sentinel *apperrors.AppError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// classify keeps an already classified error and wraps anything else in fallback.
func classify(err error, fallback *apperrors.AppError) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	return wrap(fallback, err)
}
