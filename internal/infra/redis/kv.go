package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is a Redis implementation of prefs.KV. Each Set refreshes the key TTL so
// preferences of an idle profile eventually expire; a zero TTL keeps keys forever.
type KV struct {
	client *redis.Client
	ttl    time.Duration
}

func NewKV(client *redis.Client, ttl time.Duration) *KV {
	return &KV{client: client, ttl: ttl}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}
