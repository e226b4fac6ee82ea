package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultKeyPrefix = "minepanel:sess:"

// RedisStore keeps sessions in Redis; expiry is handled by key TTLs, so it needs no sweeper.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil for RedisStore")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return s.keyPrefix + token
}

func (s *RedisStore) Create(ctx context.Context, identity Identity) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("redis: encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis: store session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load session: %w", err)
	}
	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("redis: decode session: %w", ErrInvalidToken)
	}
	return &identity, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}
