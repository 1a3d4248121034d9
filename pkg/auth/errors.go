package auth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure. The set is closed: every error
// crossing the provider contract carries exactly one of these.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication" // invalid/expired credentials or tokens
	KindValidation     ErrorKind = "validation"     // rejected input (bad slug, name, email)
	KindAuthorization  ErrorKind = "authorization"  // caller lacks permission
	KindTransport      ErrorKind = "transport"      // network or provider unreachable
	KindConfiguration  ErrorKind = "configuration"  // missing tenant or provider setup
)

// AuthError is the single error type surfaced by provider implementations.
// Message is human-readable and safe to display as-is.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError with the given kind and display message.
func NewAuthError(kind ErrorKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapError wraps a cause with a kind and display message.
func WrapError(kind ErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of an error if it is (or wraps) an AuthError,
// defaulting to transport for anything unclassified.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransport
}

// DisplayMessage converts any provider error into the single human-readable
// string the presentation layer stores and shows. Nil yields "".
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}

// Errorf is a convenience for formatted validation/config style errors.
func Errorf(kind ErrorKind, format string, args ...any) *AuthError {
	return &AuthError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
