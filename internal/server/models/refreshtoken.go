package models

import "time"

// RefreshToken is the server-side record of one issued refresh token,
// keyed by its jti claim. Revoked is monotonic: once true it never goes
// back. ReplacedBy is set only when the token was rotated, and then
// points at the jti of its successor.
type RefreshToken struct {
	ID         string
	Jti        string
	UserID     string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy string
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// Active reports whether the token can still be exchanged at the given
// instant.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// Expired reports whether the token's lifetime has passed at the given
// instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
