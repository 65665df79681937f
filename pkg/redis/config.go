package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                                              // Empty disables Redis; ticks are then serialised in-process only.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`                    // Connection attempts before giving up.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`                   // Wait between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                 // Upper bound for the whole connect phase.
	LockKey        string        `env:"REDIS_TICK_LOCK_KEY" envDefault:"notifyqueue:tick-lock"` // Key shared by every process that can trigger a tick.
	LockTTL        time.Duration `env:"REDIS_TICK_LOCK_TTL" envDefault:"2m"`                    // Must exceed the longest tick.
}
