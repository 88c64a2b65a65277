// Package sweeper purges expired refresh token records on a schedule.
// Revoked-but-unexpired records are kept: they are the evidence the
// reuse check needs.
package sweeper

import (
	"context"
	"database/sql"
	"time"

	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/repositories/repomanager"
)

// Sweeper deletes refresh token records whose lifetime has passed.
type Sweeper struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	logger   logging.Logger
	interval time.Duration
}

// New constructs a Sweeper that runs every interval.
func New(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{db: db, repos: m, logger: l.With("module", "sweeper"), interval: interval}
}

// Sweep performs one cleanup pass and returns the number of records
// removed. Deleting a record for an expired token is safe regardless of
// its revoked flag: the token can never be exchanged again either way.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.repos.RefreshTokens(s.db).DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info(ctx, "expired refresh tokens purged", "count", deleted)
	}
	return deleted, nil
}

// Run sweeps on a ticker until the context is cancelled. Errors are
// logged and the loop keeps going; a failed pass just leaves garbage
// for the next one.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error(ctx, "cleanup pass failed", "error", err)
			}
		}
	}
}
