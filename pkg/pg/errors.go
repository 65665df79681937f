package pg

import "errors"

var (
	ErrEmptyConnectionString    = errors.New("pg: PG_CONN_URL is empty")
	ErrFailedToParseDBConfig    = errors.New("pg: invalid connection string")
	ErrFailedToOpenDBConnection = errors.New("pg: database did not answer ping after all connect attempts")
	ErrFailedToApplyMigrations  = errors.New("pg: failed to apply migrations")
	ErrHealthcheckFailed        = errors.New("pg: healthcheck failed")
	// ErrSchemaMissing means the subscribers table does not exist; run "notifyd migrate".
	ErrSchemaMissing = errors.New("pg: subscribers table is missing")
)
