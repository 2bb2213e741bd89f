package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "partyquiz:identity:"

// IdentityStore persists identity values in Redis so a headless client
// survives restarts. A TTL of zero keeps values forever; a positive TTL
// lets stale identities for long-finished quizzes age out.
type IdentityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityStore(client *redis.Client, ttl time.Duration) *IdentityStore {
	return &IdentityStore{client: client, ttl: ttl}
}

func (s *IdentityStore) Load(ctx context.Context, name string) (string, bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *IdentityStore) Store(ctx context.Context, name, value string) error {
	if value == "" {
		return s.client.Del(ctx, keyPrefix+name).Err()
	}
	return s.client.Set(ctx, keyPrefix+name, value, s.ttl).Err()
}
