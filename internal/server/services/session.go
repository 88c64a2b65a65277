// Package services contains the server-side business logic. This file
// implements SessionService: issuing access/refresh token pairs, rotating
// refresh tokens on use, and detecting reuse of already-rotated tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/dbx"
	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/auth"
	"github.com/agropath/farmauth/internal/server/config"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/agropath/farmauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService orchestrates the refresh token protocol. It holds no
// mutable state of its own; any number of calls may run concurrently
// against the shared store, whose CompareAndRevoke guarantees that two
// racing rotations of the same token produce exactly one winner.
type SessionService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService from repositories and
// server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repos:                        m,
		logger:                       l.With("module", "sessions"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Login mints a fresh token pair for the user and records the refresh
// token server-side. Prior sessions are untouched; a user may hold
// several active refresh tokens, one per device.
func (s *SessionService) Login(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()
	jti := uuid.NewString()

	pair, err := s.mintPair(user, jti)
	if err != nil {
		return nil, err
	}

	repo := s.repos.RefreshTokens(s.db)
	err = repo.Create(ctx, &models.RefreshToken{
		Jti:       jti,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token record: %w", err)
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair, revoking the
// presented token. The revocation is a compare-and-swap on the stored
// record: if some other call (or a thief) already spent the token, no
// rotation happens, every session of the user is revoked, and
// common.ErrReuseDetected is returned. The reuse check deliberately runs
// before expiry classification so that a revoked-and-expired token is
// reported as reuse, not expiry.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	repo := s.repos.RefreshTokens(s.db)
	stored, err := repo.FindByJti(ctx, claims.RefreshJti)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotRecognized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	now := time.Now()
	expired := stored.Expired(now)
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		expired = true
	}

	// The successor jti is generated up front so the revocation and the
	// replaced_by link land in one atomic write. Expired tokens get no
	// successor; they are revoked on first use and reported as expired.
	newJti := uuid.NewString()
	replacedBy := newJti
	if expired {
		replacedBy = ""
	}

	var user *models.User
	var pair *TokenPair
	if !expired {
		user, err = s.repos.Users(s.db).FindByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrTokenNotRecognized
			}
			return nil, fmt.Errorf("error searching user: %w", err)
		}
		// minting is pure; doing it before the transaction means a commit
		// never leaves a successor record without its token
		pair, err = s.mintPair(user, newJti)
		if err != nil {
			return nil, err
		}
	}

	var reuse bool
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repos.RefreshTokens(tx)

		performed, err := repoTx.CompareAndRevoke(ctx, stored.Jti, replacedBy, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTokenNotRecognized
			}
			return fmt.Errorf("error revoking refresh token: %w", err)
		}
		if !performed {
			reuse = true
			return nil
		}
		if expired {
			return nil
		}

		return repoTx.Create(ctx, &models.RefreshToken{
			Jti:       newJti,
			UserID:    stored.UserID,
			ExpiresAt: now.Add(s.refreshTokenValidityDuration),
		})
	})
	if err != nil {
		return nil, err
	}

	if reuse {
		if err := repo.RevokeAllForUser(ctx, stored.UserID, now); err != nil {
			return nil, fmt.Errorf("error revoking user sessions: %w", err)
		}
		s.logger.Warn(ctx, "refresh token reuse detected, all sessions revoked",
			"userId", stored.UserID, "jti", stored.Jti)
		return nil, common.ErrReuseDetected
	}
	if expired {
		return nil, common.ErrTokenExpired
	}

	return pair, nil
}

// VerifyAccess verifies an access token and returns its claims.
func (s *SessionService) VerifyAccess(tokenString string) (*auth.Claims, error) {
	return auth.ParseAccessToken(tokenString, s.jwtSecret)
}

// LogoutAll revokes every refresh token the user holds. Idempotent:
// calling it again is a no-op.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	repo := s.repos.RefreshTokens(s.db)
	if err := repo.RevokeAllForUser(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("error revoking user sessions: %w", err)
	}
	return nil
}

func (s *SessionService) mintPair(user *models.User, jti string) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(user, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(user, jti, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
