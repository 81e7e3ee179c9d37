package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors for every failure condition the API reports. All of them
// are recoverable by the caller; none aborts the process.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrMileageUnresolved      = errors.New("mileage unresolved")
	ErrInvalidRate            = errors.New("invalid rate")
	ErrInternal               = errors.New("internal server error")
	ErrTemporaryFailure       = errors.New("temporary failure")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrTimeout                = errors.New("timeout")
	ErrRateLimited            = errors.New("rate limited")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	return errors.Is(err, ErrTemporaryFailure) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// StatusCode maps an error to the HTTP status it should produce.
func StatusCode(err error) int {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrMileageUnresolved):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrTemporaryFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, false)
}

// NewDuplicateKeyError creates a duplicate key error
func NewDuplicateKeyError(message string) *AppError {
	return NewAppError(ErrDuplicateKey, message, http.StatusConflict, false)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, false)
}

// NewInvalidTransitionError creates an invalid transition error
func NewInvalidTransitionError(message string) *AppError {
	return NewAppError(ErrInvalidTransition, message, http.StatusUnprocessableEntity, false)
}

// NewConcurrentModificationError creates a concurrent modification error.
// Marked retryable: the losing writer can re-read and try again.
func NewConcurrentModificationError(message string) *AppError {
	return NewAppError(ErrConcurrentModification, message, http.StatusConflict, true)
}

// NewMileageUnresolvedError creates a mileage unresolved error
func NewMileageUnresolvedError(message string) *AppError {
	return NewAppError(ErrMileageUnresolved, message, http.StatusConflict, false)
}

// NewInvalidRateError creates an invalid rate error
func NewInvalidRateError(message string) *AppError {
	return NewAppError(ErrInvalidRate, message, http.StatusUnprocessableEntity, false)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError, true)
}

// NewTemporaryError creates a temporary error
func NewTemporaryError(message string) *AppError {
	return NewAppError(ErrTemporaryFailure, message, http.StatusServiceUnavailable, true)
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(ErrServiceUnavailable, message, http.StatusServiceUnavailable, true)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrTimeout, message, http.StatusGatewayTimeout, true)
}

// NewRateLimitedError creates a rate limited error
func NewRateLimitedError(message string) *AppError {
	return NewAppError(ErrRateLimited, message, http.StatusTooManyRequests, false)
}
