package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/dbx"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, phone, local, area, city)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	created := *user
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Phone, user.Local, user.Area, user.City).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrPhoneExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `
		SELECT id, name, phone, local, area, city, created_at
		FROM users
		WHERE phone = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, phone))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, phone, local, area, city, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.Local, &user.Area, &user.City, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
