// Package refreshtokens declares the server-side store of refresh token
// records: one row per issued refresh token, keyed by jti.
package refreshtokens

import (
	"context"
	"time"

	"github.com/agropath/farmauth/internal/server/models"
)

// Repository defines the operations the session manager and the sweeper
// need over refresh token records.
//
// CompareAndRevoke is the one operation with a hard atomicity contract:
// two concurrent calls for the same jti must see exactly one performed=true.
type Repository interface {
	// Create inserts a new record. A jti collision yields
	// common.ErrDuplicateJti.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByJti returns the record for the given jti, or
	// common.ErrorNotFound.
	FindByJti(ctx context.Context, jti string) (*models.RefreshToken, error)

	// FindValidByJti returns the record only if it is neither revoked nor
	// expired at now; otherwise common.ErrorNotFound.
	FindValidByJti(ctx context.Context, jti string, now time.Time) (*models.RefreshToken, error)

	// FindByUserID returns every record owned by userID.
	FindByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// CompareAndRevoke atomically flips revoked from false to true,
	// stamping revoked_at = now and replaced_by = replacedBy (empty string
	// stores NULL). It reports performed=true only when this call made the
	// transition; performed=false with a nil error means the record was
	// already revoked. A missing record yields common.ErrorNotFound.
	CompareAndRevoke(ctx context.Context, jti string, replacedBy string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every non-revoked record of the user.
	// Records already revoked keep their original revoked_at. Idempotent.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error

	// FindExpired returns every record whose expires_at has passed.
	FindExpired(ctx context.Context, now time.Time) ([]*models.RefreshToken, error)

	// DeleteExpired removes every record whose expires_at has passed and
	// reports how many rows were deleted. Revoked but unexpired records
	// are kept: they are the evidence that lets a delayed replay be
	// reported as reuse instead of an unknown token.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
