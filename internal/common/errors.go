// Package common defines shared constants and sentinel errors used across
// the farmauth server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Signup errors.
	ErrPhoneExists = errors.New("phone number already exists")

	// Token verification errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh protocol errors. ErrTokenNotRecognized means the token was
	// signed by this server but no matching record exists anymore.
	// ErrReuseDetected means the matching record was already revoked; the
	// session manager revokes every session of the user before returning it.
	ErrTokenNotRecognized = errors.New("refresh token not recognized")
	ErrReuseDetected      = errors.New("refresh token reuse detected")

	// ErrDuplicateJti signals a jti collision on insert. With random UUID
	// jtis this should be unreachable, but the store checks it anyway.
	ErrDuplicateJti = errors.New("duplicate jti")

	// OTP errors.
	ErrOtpNotFound = errors.New("otp expired or not found")
	ErrOtpInvalid  = errors.New("invalid otp")
)
