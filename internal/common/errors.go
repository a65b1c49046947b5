// Package common defines shared constants and sentinel errors used across
// the server, the client and the CLI. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")
	ErrRateLimited    = errors.New("too many requests")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Completion provider errors. Both upstream rejections and transport
	// failures match this value.
	ErrUpstream = errors.New("completion provider failure")
)
