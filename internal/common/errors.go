// Package common defines shared constants and sentinel errors used across
// server and client layers of TaskFlow. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrorValidation    = errors.New("validation error")
	ErrorUpstream      = errors.New("upstream failure")
	ErrorRateLimited   = errors.New("too many requests")
	ErrorInvalidOTP    = errors.New("invalid or expired OTP")
	ErrorInvalidCreds  = errors.New("invalid credentials")
	ErrorMalformedHash = errors.New("malformed password hash")

	// Auth errors (invalid or malformed session cookie).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError describes the first offending field of a rejected request.
// It matches ErrorValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError is a shorthand for &ValidationError{Field: field, Message: msg}.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
