package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/agropath/farmauth/internal/server/repositories/repomanager"
)

// UserService manages farmer accounts.
type UserService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *UserService {
	return &UserService{db: db, repos: m, logger: l.With("module", "users")}
}

// Signup registers a new farmer. A duplicate phone number yields
// common.ErrPhoneExists.
func (s *UserService) Signup(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "user registered", "userId", created.ID, "phone", created.Phone)
	return created, nil
}

// FindByPhone looks up a user by phone number.
func (s *UserService) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.repos.Users(s.db).FindByPhone(ctx, phone)
}

// FindByID looks up a user by id.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repos.Users(s.db).FindByID(ctx, id)
}
