package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist tracks revoked tokens until their natural expiry.
type Blacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	Revoked(ctx context.Context, token string) (bool, error)
}

const blacklistPrefix = "blacklist:"

// RedisBlacklist stores revoked tokens in Redis with a TTL.
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist wraps a Redis client.
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return b.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

func (b *RedisBlacklist) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryBlacklist is an in-process fallback for deployments without
// Redis, and for tests.
type MemoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryBlacklist returns an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{revoked: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Revoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiry, ok := b.revoked[token]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(b.revoked, token)
		return false, nil
	}
	return true, nil
}
