package mongo

import "time"

// Config represents the configuration for the MongoDB subscriber directory.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL"`                                  // Required when the mongo subscriber directory is used.
	Database        string        `env:"MONGODB_DATABASE" envDefault:"newsroom"`       // Database holding the subscribers collection.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // Timeout for establishing a connection.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"20"`        // Maximum number of pooled connections.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`         // Minimum number of pooled connections.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // Idle time after which a connection is closed.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`        // Retry failed reads once.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // Connection attempts before giving up.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`       // Wait between attempts.
}
