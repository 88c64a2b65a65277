// Package otp declares the store for pending one-time login codes. Codes
// live under the user's phone number with a TTL and are stored hashed.
package otp

import (
	"context"
	"time"
)

// Repository defines the operations the OTP flow needs.
type Repository interface {
	// Set stores the hashed code for the phone, replacing any pending one,
	// and lets it expire after ttl.
	Set(ctx context.Context, phone string, codeHash string, ttl time.Duration) error

	// Get returns the pending hashed code for the phone, or
	// common.ErrOtpNotFound once it expired or was consumed.
	Get(ctx context.Context, phone string) (string, error)

	// Delete consumes the pending code. Deleting an absent code is not an
	// error.
	Delete(ctx context.Context, phone string) error
}
