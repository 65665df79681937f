package objstore

// Config contains configuration for the S3 event store.
type Config struct {
	Bucket         string `env:"OBJSTORE_BUCKET"`
	Region         string `env:"OBJSTORE_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"OBJSTORE_ACCESS_KEY_ID"`
	SecretKey      string `env:"OBJSTORE_SECRET_KEY"`
	Endpoint       string `env:"OBJSTORE_ENDPOINT"`                           // Optional: for S3-compatible services
	ForcePathStyle bool   `env:"OBJSTORE_FORCE_PATH_STYLE" envDefault:"false"` // For S3-compatible services like MinIO
	Prefix         string `env:"OBJSTORE_PREFIX" envDefault:"notifications/"`
}
