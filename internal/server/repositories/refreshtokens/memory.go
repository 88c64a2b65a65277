package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository, used by
// service and concurrency tests. The mutex gives CompareAndRevoke the
// same one-winner guarantee the conditional UPDATE gives in PostgreSQL.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func cloneToken(t *models.RefreshToken) *models.RefreshToken {
	c := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Jti]; ok {
		return common.ErrDuplicateJti
	}
	stored := cloneToken(token)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.tokens[token.Jti] = stored
	return nil
}

func (r *MemoryRepository) FindByJti(ctx context.Context, jti string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[jti]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneToken(token), nil
}

func (r *MemoryRepository) FindValidByJti(ctx context.Context, jti string, now time.Time) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[jti]
	if !ok || !token.Active(now) {
		return nil, common.ErrorNotFound
	}
	return cloneToken(token), nil
}

func (r *MemoryRepository) FindByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []*models.RefreshToken
	for _, token := range r.tokens {
		if token.UserID == userID {
			tokens = append(tokens, cloneToken(token))
		}
	}
	return tokens, nil
}

func (r *MemoryRepository) CompareAndRevoke(ctx context.Context, jti string, replacedBy string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[jti]
	if !ok {
		return false, common.ErrorNotFound
	}
	if token.Revoked {
		return false, nil
	}
	token.Revoked = true
	at := now
	token.RevokedAt = &at
	token.ReplacedBy = replacedBy
	return true, nil
}

func (r *MemoryRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			at := now
			token.RevokedAt = &at
		}
	}
	return nil
}

func (r *MemoryRepository) FindExpired(ctx context.Context, now time.Time) ([]*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []*models.RefreshToken
	for _, token := range r.tokens {
		if token.ExpiresAt.Before(now) {
			tokens = append(tokens, cloneToken(token))
		}
	}
	return tokens, nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for jti, token := range r.tokens {
		if token.ExpiresAt.Before(now) {
			delete(r.tokens, jti)
			deleted++
		}
	}
	return deleted, nil
}
