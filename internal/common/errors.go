// Package common defines shared constants and sentinel errors used across
// the IAM, gateway, and agent layers of authbridge. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential errors. The same value is returned for an unknown email and
	// a wrong password so that callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access-token errors (malformed, bad signature, wrong audience).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenInvalid = errors.New("refresh token rejected by issuer")
	ErrNoActiveSession     = errors.New("no active session")

	// Throttling.
	ErrTooManyRequests = errors.New("too many requests")

	// Identity-mapping errors.
	ErrMappingConflict     = errors.New("identity mapping already exists")
	ErrInconsistentMapping = errors.New("identity mapping points to a missing user")

	// Transient upstream failures. Safe to retry; no local state was mutated.
	ErrServiceUnavailable = errors.New("issuer service unavailable")
)
