// Package common defines shared constants and sentinel errors used across
// the service layers of todokeeper. Callers should use errors.Is to match
// these values; only the HTTP boundary translates them into status codes.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Bearer token errors.
	ErrTokenExpired      = errors.New("token expired")
	ErrBadSignature      = errors.New("bad token signature")
	ErrBadIssuerAudience = errors.New("token issuer or audience mismatch")

	// Decode errors (reset tokens, bearer tokens, request payloads).
	ErrMalformed = errors.New("malformed token")

	// Access errors.
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")

	// Task-specific errors.
	ErrTaskCompleted = errors.New("cannot delete a completed task")
)
