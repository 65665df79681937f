package redis

import "errors"

var (
	ErrEmptyConnectionURL   = errors.New("redis: REDIS_URL is empty")
	ErrInvalidConnectionURL = errors.New("redis: invalid connection URL")
	ErrNotReady             = errors.New("redis: server did not answer ping within the connect timeout")
	ErrHealthcheckFailed    = errors.New("redis: healthcheck failed")

	// ErrLockLost is logged when the tick lock expired or was taken over before release.
	ErrLockLost = errors.New("redis: tick lock expired before release")
	// ErrLockStuck means the tick lock key has no expiry and will never be released.
	ErrLockStuck = errors.New("redis: tick lock has no ttl")
)
