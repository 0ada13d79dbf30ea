package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis"

	"bollette/internal/core"
)

// fakeRedis mimics SETNX with expiry against an injected clock.
type fakeRedis struct {
	now  time.Time
	keys map[string]time.Time
	ttls []time.Duration
}

func (f *fakeRedis) setNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	f.ttls = append(f.ttls, ttl)
	if exp, ok := f.keys[key]; ok && f.now.Before(exp) {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = f.now.Add(ttl)
	return redis.NewBoolResult(true, nil)
}

func TestEventKey(t *testing.T) {
	if got := eventKey(42, core.EventOverdue); got != "bollette:event:42:overdue" {
		t.Errorf("eventKey() = %q", got)
	}
}

func TestRedisEventLog_Record(t *testing.T) {
	t0 := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	fake := &fakeRedis{now: t0, keys: map[string]time.Time{}}
	l := &RedisEventLog{setNX: fake.setNX, window: 24 * time.Hour}
	ctx := context.Background()

	steps := []struct {
		name   string
		offset time.Duration
		typ    core.EventType
		want   bool
	}{
		{"first", 0, core.EventOverdue, true},
		{"inside window", 23 * time.Hour, core.EventOverdue, false},
		{"other type", time.Hour, core.EventReminder, true},
		{"after expiry", 24 * time.Hour, core.EventOverdue, true},
	}
	for _, s := range steps {
		fake.now = t0.Add(s.offset)
		got, err := l.Record(ctx, 7, s.typ, fake.now)
		if err != nil {
			t.Fatalf("%s: Record() error = %v", s.name, err)
		}
		if got != s.want {
			t.Errorf("%s: Record() = %v, want %v", s.name, got, s.want)
		}
	}
	for _, ttl := range fake.ttls {
		if ttl != 24*time.Hour {
			t.Errorf("ttl = %v, want 24h", ttl)
		}
	}
}

func TestRedisEventLog_RecordError(t *testing.T) {
	l := &RedisEventLog{
		setNX: func(context.Context, string, interface{}, time.Duration) *redis.BoolCmd {
			return redis.NewBoolResult(false, errors.New("READONLY"))
		},
		window: time.Hour,
	}
	if _, err := l.Record(context.Background(), 1, core.EventReminder, time.Now()); err == nil {
		t.Error("Record() should surface redis errors")
	}
}
