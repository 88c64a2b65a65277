package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRepoWithMiniredis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestSetGet_RoundTrip(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "+911234567890", "hashed-code", 5*time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, err := repo.Get(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != "hashed-code" {
		t.Fatalf("want %q, got %q", "hashed-code", got)
	}
}

func TestGet_Missing(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)

	_, err := repo.Get(context.Background(), "+910000000000")
	if !errors.Is(err, common.ErrOtpNotFound) {
		t.Fatalf("want common.ErrOtpNotFound, got %v", err)
	}
}

func TestGet_AfterTTL(t *testing.T) {
	repo, mr := newRepoWithMiniredis(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "+911234567890", "hashed-code", time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "+911234567890")
	if !errors.Is(err, common.ErrOtpNotFound) {
		t.Fatalf("want common.ErrOtpNotFound after TTL, got %v", err)
	}
}

func TestSet_ReplacesPendingCode(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "+911234567890", "first", 5*time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := repo.Set(ctx, "+911234567890", "second", 5*time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, err := repo.Get(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != "second" {
		t.Fatalf("want the replacement code, got %q", got)
	}
}

func TestDelete_ConsumesAndIsIdempotent(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "+911234567890", "hashed-code", 5*time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := repo.Delete(ctx, "+911234567890"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.Get(ctx, "+911234567890"); !errors.Is(err, common.ErrOtpNotFound) {
		t.Fatalf("want common.ErrOtpNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "+911234567890"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}
