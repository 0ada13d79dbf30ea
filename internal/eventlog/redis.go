// Package eventlog keeps the notification dedup log in Redis, for
// deployments where several workers share one notification stream.
package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis"

	"bollette/internal/core"
)

const keyPrefix = "bollette:event"

type setNXFunc func(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd

// RedisEventLog records one key per instance and event type that expires
// after the dedup window. Expiry follows the Redis server clock, not at.
type RedisEventLog struct {
	client *redis.Client
	setNX  setNXFunc
	window time.Duration
}

func NewRedisEventLog(addr, password string, db int, window time.Duration) (*RedisEventLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	slog.Info("Redis event log ready", "addr", addr, "db", db)
	return &RedisEventLog{
		client: client,
		setNX: func(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
			return client.WithContext(ctx).SetNX(key, value, ttl)
		},
		window: window,
	}, nil
}

func eventKey(instanceID int64, eventType core.EventType) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, instanceID, eventType)
}

// Record sets the key only when absent, so of two concurrent callers exactly
// one gets true.
func (l *RedisEventLog) Record(ctx context.Context, instanceID int64, eventType core.EventType, at time.Time) (bool, error) {
	key := eventKey(instanceID, eventType)
	ok, err := l.setNX(ctx, key, at.UTC().Format(time.RFC3339), l.window).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisEventLog) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
