package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockClient is the subset of go-redis used by Locker.
type LockClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// Locker implements dispatch.Locker on a single Redis key.
type Locker struct {
	client LockClient
	key    string
	ttl    time.Duration
	log    *slog.Logger
}

var _ dispatch.Locker = (*Locker)(nil)

// NewLocker creates a lock stored under key that expires after ttl if never released.
func NewLocker(client LockClient, key string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Locker{
		client: client,
		key:    key,
		ttl:    ttl,
		log:    slog.Default().With(logger.Component("redis.locker")),
	}
}

// Lock takes the lock or returns dispatch.ErrLocked when another holder has it.
func (l *Locker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dispatch.ErrLocked
	}

	return func() {
		// Release even when the tick's context is already cancelled.
		ctx := context.WithoutCancel(ctx)
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int64()
		switch {
		case err != nil:
			l.log.ErrorContext(ctx, "failed to release tick lock", logger.Error(err))
		case n == 0:
			l.log.WarnContext(ctx, "tick lock was not held at release", logger.Error(ErrLockLost))
		}
	}, nil
}
