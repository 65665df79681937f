package email

import "time"

// Config holds email delivery configuration.
// When PostmarkServerToken is empty the binary falls back to DevSender and
// writes messages to DevOutputDir instead of sending them.
type Config struct {
	PostmarkServerToken  string        `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string        `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string        `env:"SENDER_EMAIL" envDefault:"newsroom@example.com"`
	SupportEmail         string        `env:"SUPPORT_EMAIL" envDefault:"support@example.com"`
	SiteURL              string        `env:"SITE_URL" envDefault:"http://localhost:8080"`
	DevOutputDir         string        `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"./data/outbox"`
	SendTimeout          time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
}
