package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthenticated     = errors.New("authentication failed")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMalformedFrame      = errors.New("malformed frame")
	ErrPresenceUnavailable = errors.New("presence store unavailable")
	ErrLastAdmin           = errors.New("cannot remove the last admin from the group")
	ErrInternal            = errors.New("internal server error")
)
