package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MohaDjm/the-tip-top-sub000/config"
)

// ErrTokenNotFound is returned when a one-shot token is absent or already consumed.
var ErrTokenNotFound = errors.New("token introuvable ou déjà utilisé")

// Client wraps the Redis connection.
// Used for refresh sessions, the access-token blacklist, single-use
// email tokens and rate-limit counters. Core lottery state never lives
// here; losing Redis only logs everyone out.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and pings it.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── access-token blacklist ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken stores a JWT ID until the token would have expired anyway.
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to revoke
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether a JWT ID has been revoked.
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── refresh sessions ──

const (
	sessionPrefix      = "session:"
	userSessionsPrefix = "user_sessions:"
)

// StoreSession records a refresh-token session keyed by its JWT ID,
// and indexes it under the user for bulk invalidation.
func (c *Client) StoreSession(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, sessionPrefix+jti, userID, ttl).Err(); err != nil {
		return err
	}
	if err := c.rdb.SAdd(ctx, userSessionsPrefix+userID, jti).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, userSessionsPrefix+userID, ttl).Err()
}

// SessionExists reports whether a refresh session is still live.
func (c *Client) SessionExists(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, sessionPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteSession removes a single refresh session.
func (c *Client) DeleteSession(ctx context.Context, jti, userID string) error {
	if err := c.rdb.Del(ctx, sessionPrefix+jti).Err(); err != nil {
		return err
	}
	return c.rdb.SRem(ctx, userSessionsPrefix+userID, jti).Err()
}

// DeleteUserSessions removes every refresh session of a user
// (used after a password reset).
func (c *Client) DeleteUserSessions(ctx context.Context, userID string) error {
	jtis, err := c.rdb.SMembers(ctx, userSessionsPrefix+userID).Result()
	if err != nil {
		return err
	}
	for _, jti := range jtis {
		if err := c.rdb.Del(ctx, sessionPrefix+jti).Err(); err != nil {
			return err
		}
	}
	return c.rdb.Del(ctx, userSessionsPrefix+userID).Err()
}

// ── single-use email tokens ──

// Token kinds for StoreToken / ConsumeToken.
const (
	TokenVerifyEmail   = "verify_email"
	TokenPasswordReset = "password_reset"
)

func tokenKey(kind, token string) string {
	return "onetoken:" + kind + ":" + token
}

// StoreToken saves a single-use token mapped to a user ID.
func (c *Client) StoreToken(ctx context.Context, kind, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, tokenKey(kind, token), userID, ttl).Err()
}

// ConsumeToken atomically fetches and deletes a single-use token,
// returning the user ID it belongs to. A second call with the same
// token returns ErrTokenNotFound.
func (c *Client) ConsumeToken(ctx context.Context, kind, token string) (string, error) {
	userID, err := c.rdb.GetDel(ctx, tokenKey(kind, token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return userID, nil
}

// ── rate limiting ──

// CheckRateLimit implements a fixed-window counter.
// Returns false when the caller has exceeded limit requests in the window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, "rate_limit:"+key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, "rate_limit:"+key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
