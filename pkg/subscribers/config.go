package subscribers

// Source names the backing store of the directory.
type Source string

const (
	SourceStatic   Source = "static"
	SourceYAML     Source = "yaml"
	SourcePostgres Source = "postgres"
	SourceMongo    Source = "mongo"
)

// Config selects and configures the subscriber directory.
type Config struct {
	Source          Source   `env:"SUBSCRIBERS_SOURCE" envDefault:"yaml"`
	File            string   `env:"SUBSCRIBERS_FILE" envDefault:"./data/subscribers.yaml"`
	Static          []string `env:"SUBSCRIBERS_STATIC" envSeparator:","`
	MongoCollection string   `env:"SUBSCRIBERS_MONGO_COLLECTION" envDefault:"subscribers"`
}
