package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const eventLedgerPrefix = "payments:event:"

// RedisEventLedger dedupes webhook deliveries across instances.
type RedisEventLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventLedger(client *redis.Client, ttl time.Duration) *RedisEventLedger {
	return &RedisEventLedger{client: client, ttl: ttl}
}

func (l *RedisEventLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, eventLedgerPrefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}
	return ok, nil
}

func (l *RedisEventLedger) Release(ctx context.Context, eventID string) error {
	if err := l.client.Del(ctx, eventLedgerPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}
	return nil
}

// MemoryEventLedger is the single-process EventLedger.
type MemoryEventLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryEventLedger() *MemoryEventLedger {
	return &MemoryEventLedger{seen: make(map[string]struct{})}
}

func (l *MemoryEventLedger) Claim(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[eventID]; ok {
		return false, nil
	}
	l.seen[eventID] = struct{}{}
	return true, nil
}

func (l *MemoryEventLedger) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, eventID)
	return nil
}
