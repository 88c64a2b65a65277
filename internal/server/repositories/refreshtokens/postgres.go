package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/dbx"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, token.Jti, token.UserID, token.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrDuplicateJti
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func scanToken(row *sql.Row) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	var replacedBy sql.NullString
	var revokedAt sql.NullTime

	err := row.Scan(&token.ID, &token.Jti, &token.UserID, &token.ExpiresAt,
		&token.Revoked, &replacedBy, &token.CreatedAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	token.ReplacedBy = replacedBy.String
	if revokedAt.Valid {
		t := revokedAt.Time
		token.RevokedAt = &t
	}
	return token, nil
}

func (r *PostgresRepository) FindByJti(ctx context.Context, jti string) (*models.RefreshToken, error) {
	query := `
		SELECT id, jti, user_id, expires_at, revoked, replaced_by, created_at, revoked_at
		FROM refresh_tokens
		WHERE jti = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, jti))
}

func (r *PostgresRepository) FindValidByJti(ctx context.Context, jti string, now time.Time) (*models.RefreshToken, error) {
	query := `
		SELECT id, jti, user_id, expires_at, revoked, replaced_by, created_at, revoked_at
		FROM refresh_tokens
		WHERE jti = $1 AND revoked = FALSE AND expires_at > $2
	`
	return scanToken(r.db.QueryRowContext(ctx, query, jti, now))
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, jti, user_id, expires_at, revoked, replaced_by, created_at, revoked_at
		FROM refresh_tokens
		WHERE user_id = $1
	`
	return r.queryTokens(ctx, query, userID)
}

// CompareAndRevoke is a single conditional UPDATE guarded by the current
// revoked value. The guard makes concurrent rotations of the same jti
// race on the row: exactly one caller observes rows-affected = 1.
func (r *PostgresRepository) CompareAndRevoke(ctx context.Context, jti string, replacedBy string, now time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2, replaced_by = NULLIF($3, '')
		WHERE jti = $1 AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, jti, now, replacedBy)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	// No transition happened: distinguish an already-revoked record from a
	// record that no longer exists.
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM refresh_tokens WHERE jti = $1`, jti).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return false, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND revoked = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, userID, now); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindExpired(ctx context.Context, now time.Time) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, jti, user_id, expires_at, revoked, replaced_by, created_at, revoked_at
		FROM refresh_tokens
		WHERE expires_at < $1
	`
	return r.queryTokens(ctx, query, now)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

func (r *PostgresRepository) queryTokens(ctx context.Context, query string, arg any) ([]*models.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []*models.RefreshToken
	for rows.Next() {
		token := &models.RefreshToken{}
		var replacedBy sql.NullString
		var revokedAt sql.NullTime
		if err := rows.Scan(&token.ID, &token.Jti, &token.UserID, &token.ExpiresAt,
			&token.Revoked, &replacedBy, &token.CreatedAt, &revokedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		token.ReplacedBy = replacedBy.String
		if revokedAt.Valid {
			t := revokedAt.Time
			token.RevokedAt = &t
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}
