package auth

import "errors"

// Device store errors
var (
	ErrNotFound          = errors.New("device authorization not found")
	ErrUserCodeTaken     = errors.New("user code already in use")
	ErrAlreadyResolved   = errors.New("device authorization already resolved")
	ErrAlreadyConsumed   = errors.New("device code already exchanged")
	ErrInvalidUserCode   = errors.New("malformed user code")
	ErrUserCodeExhausted = errors.New("could not allocate a unique user code")
)

// Token endpoint outcomes for the device code grant (RFC 8628 section 3.5)
var (
	ErrAuthorizationPending = errors.New("authorization pending")
	ErrSlowDown             = errors.New("polling too frequently")
	ErrAccessDenied         = errors.New("authorization request denied")
	ErrExpiredToken         = errors.New("device code expired")
	ErrInvalidGrant         = errors.New("invalid device code")
	ErrInvalidClient        = errors.New("client cannot be issued tokens for this grant")
)
