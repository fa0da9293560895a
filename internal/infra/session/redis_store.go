// Package session stores refresh-token sessions in Redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"knowledgebase/internal/repository"
)

const (
	sessionPrefix = "refresh:"
	userPrefix    = "refresh:user:"
)

// RedisStore implements repository.SessionStore.
type RedisStore struct {
	client *redis.Client
}

var _ repository.SessionStore = (*RedisStore)(nil)

// NewRedisStore parses redisURL, connects and pings.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores jti for ttl and indexes it under its user.
func (s *RedisStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("save refresh session: non-positive ttl %v", ttl)
	}
	userKey := userPrefix + userID
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionPrefix+jti, userID, ttl)
		p.SAdd(ctx, userKey, jti)
		// the index lives as long as the newest session
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the session.
func (s *RedisStore) Consume(ctx context.Context, jti string) (string, error) {
	userID, err := s.client.GetDel(ctx, sessionPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh session: %w", err)
	}
	if err := s.client.SRem(ctx, userPrefix+userID, jti).Err(); err != nil {
		return "", fmt.Errorf("consume refresh session: %w", err)
	}
	return userID, nil
}

// Revoke deletes the session. Unknown ids are not an error.
func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	userID, err := s.client.GetDel(ctx, sessionPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	if err := s.client.SRem(ctx, userPrefix+userID, jti).Err(); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// RevokeUser deletes every session indexed under userID.
func (s *RedisStore) RevokeUser(ctx context.Context, userID string) error {
	userKey := userPrefix + userID
	jtis, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, sessionPrefix+jti)
	}
	keys = append(keys, userKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
