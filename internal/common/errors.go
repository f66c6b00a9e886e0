// Package common defines shared constants and sentinel errors used across
// client and server layers of KidsBank. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnavailable  = errors.New("store unavailable")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Authentication errors.
	ErrNoPasswordSet     = errors.New("account has no password set")
	ErrInvalidCredential = errors.New("invalid password")

	// Token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
