package mongo

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("mongo: MONGODB_URL is empty")
	ErrNotReady           = errors.New("mongo: server did not answer ping after all connect attempts")
	ErrHealthcheckFailed  = errors.New("mongo: healthcheck failed")
)
