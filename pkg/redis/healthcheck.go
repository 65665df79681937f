package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Prober is the subset of go-redis used by Healthcheck.
type Prober interface {
	Ping(ctx context.Context) *redis.StatusCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// Healthcheck pings Redis and verifies the tick lock at lockKey carries an expiry.
// A lock without a TTL would block every future tick, so it fails readiness.
func Healthcheck(client Prober, lockKey string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if lockKey == "" {
			return nil
		}
		ttl, err := client.PTTL(ctx, lockKey).Result()
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		// -1 means the key exists without an expiry; -2 means no lock is held.
		if ttl == time.Duration(-1) {
			return errors.Join(ErrHealthcheckFailed, fmt.Errorf("%w: %s", ErrLockStuck, lockKey))
		}
		return nil
	}
}
