package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrLoginFailed = errors.New("Login failed")
var ErrRegistrationFailed = errors.New("Registration failed")
var ErrProviderSignIn = errors.New("Failed to sign in with the specified provider.")
var ErrProviderUnavailable = errors.New("identity provider not configured")
var ErrNoSession = errors.New("no active session")
var ErrSessionExpired = errors.New("session expired")

// AuthError pairs a fixed user-facing message with the error that caused it.
// Error() hides the cause unless Detailed is set; errors.Is/As still reach it.
type AuthError struct {
	Op       string
	Kind     error
	Cause    error
	Detailed bool
}

func (e *AuthError) Error() string {
	if e.Detailed && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the fixed kind and the underlying cause.
func (e *AuthError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// DecodeError reports a backend reply that matches none of the known shapes.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode auth response: %s: %v", e.Reason, e.Err)
	}
	return "decode auth response: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// APIError is a non-2xx reply from the auth backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth api error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("auth api error %d: %s", e.Status, msg)
}
