package email

import (
	"context"

	"github.com/mrz1836/postmark"
)

// PostmarkAPIFunc lets tests stand in for the Postmark HTTP client.
type PostmarkAPIFunc func(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)

func (f PostmarkAPIFunc) SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	return f(ctx, email)
}

func NewPostmarkClientWithAPI(cfg Config, api PostmarkAPIFunc) (EmailSender, error) {
	if err := validatePostmarkConfig(cfg); err != nil {
		return nil, err
	}
	return &postmarkClient{api: api, config: cfg}, nil
}
