package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation to the HTTP edge.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthenticationRequired
	KindValidation
	KindCsrfViolation
	KindPolicyDenied
	KindProviderAuth
	KindProviderUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:               "internal_error",
	KindAuthenticationRequired: "authentication_required",
	KindValidation:             "validation_error",
	KindCsrfViolation:          "csrf_violation",
	KindPolicyDenied:           "policy_denied",
	KindProviderAuth:           "provider_auth_error",
	KindProviderUnavailable:    "provider_unavailable",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// HTTPStatus maps a kind to its response status. Provider unavailability is reported as 400
// unless strict is set, in which case it becomes 502.
func (k Kind) HTTPStatus(strict bool) int {
	switch k {
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	case KindValidation, KindCsrfViolation, KindProviderAuth:
		return http.StatusBadRequest
	case KindPolicyDenied:
		return http.StatusForbidden
	case KindProviderUnavailable:
		if strict {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Message is safe to show to users; Err carries the underlying
// cause (raw provider bodies, transport errors) and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping it as the cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Convenience constructors for the taxonomy.
func AuthenticationRequired(message string) *Error { return New(KindAuthenticationRequired, message) }
func Validation(message string) *Error             { return New(KindValidation, message) }
func CsrfViolation(message string) *Error          { return New(KindCsrfViolation, message) }
func PolicyDenied(message string) *Error           { return New(KindPolicyDenied, message) }
func ProviderAuth(message string) *Error           { return New(KindProviderAuth, message) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the user-safe message for err. Unclassified errors and internal errors
// never expose their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "An unexpected error occurred. Please try again."
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
