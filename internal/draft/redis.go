package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores drafts as Redis strings. A zero TTL keeps them forever.
type RedisSlot struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func (s *RedisSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft from redis: %w", err)
	}
	return data, nil
}

func (s *RedisSlot) Save(ctx context.Context, key string, data []byte) error {
	if err := s.Client.Set(ctx, s.Prefix+key, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("saving draft to redis: %w", err)
	}
	return nil
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := s.Client.Del(ctx, s.Prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting draft from redis: %w", err)
	}
	return nil
}
