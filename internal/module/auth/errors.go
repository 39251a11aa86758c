package auth

import "errors"

// Auth module errors.
var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrMissingSubject     = errors.New("token has no subject")
	ErrDecryptionFailed   = errors.New("decryption failed")
)
