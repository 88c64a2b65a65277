// Package users declares the repository contract for farmer accounts.
// The auth core treats users as read-mostly: created once at signup,
// then only looked up to embed identity claims in tokens.
package users

import (
	"context"

	"github.com/agropath/farmauth/internal/server/models"
)

// Repository defines persistence operations for users.
type Repository interface {
	// Create inserts a new user. A duplicate phone number yields
	// common.ErrPhoneExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByPhone returns the user with the given phone number, or
	// common.ErrorNotFound.
	FindByPhone(ctx context.Context, phone string) (*models.User, error)

	// FindByID returns the user with the given id, or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
}
