package auth

import "errors"

var (
	// ErrInvalidToken indicates a missing, malformed, or badly signed token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token is well-formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMismatch indicates the presented refresh token is not the one
	// currently stored for the identity. A rotated or revoked token being
	// replayed lands here.
	ErrTokenMismatch = errors.New("refresh token mismatch")
	// ErrIdentityNotFound indicates the credential store has no record for
	// the identity referenced by a token.
	ErrIdentityNotFound = errors.New("identity not found")
)
