// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist for the scoped user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredential indicates a bearer credential that failed verification.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrMissingTargetUser indicates an automation credential without a target user.
	ErrMissingTargetUser = errors.New("automation credential requires a target user")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)
