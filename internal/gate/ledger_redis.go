package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"progression/internal/events"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
)

const redisLedgerPrefix = "progression:processed:"

// RedisLedger records processed ids with SET NX and a retention TTL.
type RedisLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLedger creates a ledger keeping ids for ttl.
func NewRedisLedger(client redis.UniversalClient, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Seen(ctx context.Context, id domain.EventID) (bool, error) {
	n, err := l.client.Exists(ctx, redisLedgerPrefix+string(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Commit(ctx context.Context, id domain.EventID, name events.Name) error {
	ok, err := l.client.SetNX(ctx, redisLedgerPrefix+string(id), string(name), l.ttl).Result()
	if err != nil {
		return fmt.Errorf("record processed event: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}
