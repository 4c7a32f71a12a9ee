package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers revoked tokens until they would have expired anyway.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

var blacklist TokenBlacklist = NewMemoryBlacklist()

func SetBlacklist(b TokenBlacklist) {
	blacklist = b
}

func BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return blacklist.Add(ctx, token, ttl)
}

func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return blacklist.Contains(ctx, token)
}

type MemoryBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{tokens: make(map[string]time.Time)}
}

func (m *MemoryBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryBlacklist) Contains(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	expiry, exists := m.tokens[token]
	m.mu.RUnlock()
	if !exists {
		return false, nil
	}
	if time.Now().Before(expiry) {
		return true, nil
	}

	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
	return false, nil
}

type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client, prefix: "auth:blacklist:"}
}

func (r *RedisBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+token, 1, ttl).Err()
}

func (r *RedisBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, r.prefix+token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NewRedisClient connects and pings; callers fall back to the memory
// blacklist when it fails.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
