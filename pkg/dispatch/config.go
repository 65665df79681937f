package dispatch

import "time"

// Config holds queue and processor tuning. Zero values fall back to defaults.
type Config struct {
	DataDir                 string        `env:"DISPATCH_DATA_DIR" envDefault:"./data/notifications"`
	BatchSize               int           `env:"DISPATCH_BATCH_SIZE" envDefault:"20"`
	MaxEmailsPerMinute      int           `env:"DISPATCH_MAX_EMAILS_PER_MINUTE" envDefault:"60"`
	CircuitBreakerThreshold int           `env:"DISPATCH_CIRCUIT_BREAKER_THRESHOLD" envDefault:"10"`
	MaxAttempts             int           `env:"DISPATCH_MAX_ATTEMPTS" envDefault:"0"` // 0 disables the limit
	PollInterval            time.Duration `env:"DISPATCH_POLL_INTERVAL" envDefault:"30s"`
}

const (
	DefaultBatchSize               = 20
	DefaultMaxEmailsPerMinute      = 60
	DefaultCircuitBreakerThreshold = 10
	DefaultPollInterval            = 30 * time.Second
)

// DefaultConfig mirrors the envDefault tags for callers that do not load from env.
func DefaultConfig() Config {
	return Config{
		DataDir:                 "./data/notifications",
		BatchSize:               DefaultBatchSize,
		MaxEmailsPerMinute:      DefaultMaxEmailsPerMinute,
		CircuitBreakerThreshold: DefaultCircuitBreakerThreshold,
		PollInterval:            DefaultPollInterval,
	}
}

// SendInterval is the fixed delay enforced before every send.
func (c Config) SendInterval() time.Duration {
	perMinute := c.MaxEmailsPerMinute
	if perMinute <= 0 {
		perMinute = DefaultMaxEmailsPerMinute
	}
	return time.Minute / time.Duration(perMinute)
}

// LongestTick bounds the wall time of one tick: a full batch in which every
// send waits the rate-limit delay and then runs for up to sendTimeout.
func (c Config) LongestTick(sendTimeout time.Duration) time.Duration {
	batch := c.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return time.Duration(batch) * (c.SendInterval() + max(sendTimeout, 0))
}
