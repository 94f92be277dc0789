// Package cache keeps backend reference lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/premik/internal/metrics"
	"github.com/erazemk/premik/internal/model"
)

// DefaultTTL is how long reference lists stay cached.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "premik:lookup:"

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Source loads a reference list from the backend.
type Source interface {
	ListLookup(ctx context.Context, name string) ([]model.Lookup, error)
}

// Lookups serves reference lists from Redis, falling back to Source on a
// miss. With a nil Client every call goes to Source.
type Lookups struct {
	Client *redis.Client
	Source Source
	TTL    time.Duration
}

// List returns the named reference list.
func (l *Lookups) List(ctx context.Context, name string) ([]model.Lookup, error) {
	if l.Client == nil {
		metrics.LookupCacheTotal.WithLabelValues(name, "bypass").Inc()
		return l.Source.ListLookup(ctx, name)
	}

	key := keyPrefix + name
	data, err := l.Client.Get(ctx, key).Bytes()
	if err == nil {
		var list []model.Lookup
		if err := json.Unmarshal(data, &list); err == nil {
			metrics.LookupCacheTotal.WithLabelValues(name, "hit").Inc()
			return list, nil
		}
	} else if err != redis.Nil {
		slog.Warn("lookup cache read failed", "list", name, "error", err)
	}
	metrics.LookupCacheTotal.WithLabelValues(name, "miss").Inc()

	list, err := l.Source.ListLookup(ctx, name)
	if err != nil {
		return nil, err
	}

	ttl := l.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if data, err := json.Marshal(list); err == nil {
		if err := l.Client.Set(ctx, key, data, ttl).Err(); err != nil {
			slog.Warn("lookup cache write failed", "list", name, "error", err)
		}
	}
	return list, nil
}

// Invalidate drops a cached list.
func (l *Lookups) Invalidate(ctx context.Context, name string) error {
	if l.Client == nil {
		return nil
	}
	if err := l.Client.Del(ctx, keyPrefix+name).Err(); err != nil {
		return fmt.Errorf("invalidating %s: %w", name, err)
	}
	return nil
}
