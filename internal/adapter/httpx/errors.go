package httpx

import "fmt"

// ErrorType represents the category of error that occurred.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeNotFound
	ErrTypeConflict
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeConflict:
		return "conflict"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error represents an HTTP client error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Service    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Service, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// FromStatusCode classifies an HTTP response status into a typed error.
// Rate limits and server-side failures are retryable; client mistakes are
// not.
func FromStatusCode(service string, statusCode int, message string) *Error {
	e := &Error{
		Message:    message,
		StatusCode: statusCode,
		Service:    service,
	}

	switch {
	case statusCode == 401 || statusCode == 403:
		e.Type = ErrTypeAuthentication
	case statusCode == 404:
		e.Type = ErrTypeNotFound
	case statusCode == 409:
		e.Type = ErrTypeConflict
	case statusCode == 429:
		e.Type = ErrTypeRateLimit
		e.Retryable = true
	case statusCode >= 500:
		e.Type = ErrTypeServiceUnavailable
		e.Retryable = true
	case statusCode >= 400:
		e.Type = ErrTypeInvalidRequest
	default:
		e.Type = ErrTypeUnknown
	}

	return e
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(service, message string) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
		Service:   service,
	}
}

// NewTransportError creates an error for a request that never produced a
// response (connection refused, DNS failure).
func NewTransportError(service, message string) *Error {
	return &Error{
		Type:      ErrTypeServiceUnavailable,
		Message:   message,
		Retryable: true,
		Service:   service,
	}
}
