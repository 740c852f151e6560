package models

import "errors"

// Error constants shared by the identity API and the flow client. The
// client maps non-2xx responses back onto these so callers can use
// errors.Is regardless of which side of the wire they sit on.
var (
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrAlreadyRegistered  = errors.New("identifier already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRateLimited        = errors.New("too many code requests")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrNotVerified        = errors.New("identifier not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Flow state machine errors
var (
	ErrRequestInFlight   = errors.New("request already in flight")
	ErrSessionTerminal   = errors.New("verification session is terminal")
	ErrInvalidTransition = errors.New("invalid step transition")
)
