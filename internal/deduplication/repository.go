package deduplication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Repository records keys with an expiry. SetNX reports whether key was new.
type Repository interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	success, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return success, nil
}

// MemoryRepository is a process-local Repository. Expired keys are swept on write.
type MemoryRepository struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (r *MemoryRepository) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, expiresAt := range r.seen {
		if !now.Before(expiresAt) {
			delete(r.seen, k)
		}
	}

	if _, ok := r.seen[key]; ok {
		return false, nil
	}
	r.seen[key] = now.Add(ttl)
	return true, nil
}

func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
