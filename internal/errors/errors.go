package errors

import (
	"errors"
	"fmt"
)

// Common error types for the swipe client
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// Login flow errors
	ErrMissingCode   = errors.New("authorization code missing")
	ErrInvalidState  = errors.New("invalid state parameter")
	ErrLoginDisabled = errors.New("no authorization endpoint configured")

	// Upstream API errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream error")
)

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
