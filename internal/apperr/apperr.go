// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Services wrap these sentinels with context; handlers map
// them to status codes and never leak anything else.
package apperr

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
