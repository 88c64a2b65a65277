package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// RedisRepository keeps pending codes in Redis, relying on key TTLs for
// expiry.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository constructs a repository over the given client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func key(phone string) string {
	return keyPrefix + phone
}

func (r *RedisRepository) Set(ctx context.Context, phone string, codeHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key(phone), codeHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, phone string) (string, error) {
	value, err := r.client.Get(ctx, key(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrOtpNotFound
		}
		return "", fmt.Errorf("redis error: %w", err)
	}
	return value, nil
}

func (r *RedisRepository) Delete(ctx context.Context, phone string) error {
	if err := r.client.Del(ctx, key(phone)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
