package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/merchantops/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// revocationPrefix is shared with the login service, which owns the writes.
const revocationPrefix = "mops:session:revoked:"

// TokenBlacklist answers whether a session was revoked before it expired.
// This service only reads revocations; it never records them.
type TokenBlacklist interface {
	// IsBlacklisted reports whether the session with this JTI was revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// IsUserTokenInvalidated reports whether every session of userID issued
	// at or before issuedAt was revoked
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist reads revocation markers from the shared Redis.
// A JTI marker is an existing key; a user marker holds the unix second
// up to which that user's sessions are void.
type RedisTokenBlacklist struct {
	client *redis.Client
}

// NewRedisTokenBlacklist connects to Redis and fails fast when it is unreachable
func NewRedisTokenBlacklist(ctx context.Context, cfg config.RedisConfig) (*RedisTokenBlacklist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to session revocation store: %w", err)
	}
	return NewRedisTokenBlacklistWithClient(client), nil
}

// NewRedisTokenBlacklistWithClient wraps an existing client
func NewRedisTokenBlacklistWithClient(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func jtiKey(jti string) string { return revocationPrefix + "jti:" + jti }

func userKey(userID string) string { return revocationPrefix + "user:" + userID }

// IsBlacklisted implements TokenBlacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("read jti revocation: %w", err)
	}
	return n > 0, nil
}

// IsUserTokenInvalidated implements TokenBlacklist
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	marker, err := b.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read user revocation: %w", err)
	}
	return revokedBy(marker, issuedAt)
}

// revokedBy compares a token's issue time with a user marker
func revokedBy(marker string, issuedAt time.Time) (bool, error) {
	cutoff, err := strconv.ParseInt(strings.TrimSpace(marker), 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed user revocation %q: %w", marker, err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

// Close releases the Redis connection pool
func (b *RedisTokenBlacklist) Close() error {
	return b.client.Close()
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)
