package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Prober is satisfied by *pgxpool.Pool.
type Prober interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const subscribersTableQuery = `SELECT to_regclass('subscribers') IS NOT NULL`

// Healthcheck pings the database and checks that migrations have created the
// subscribers table, so readiness fails before the first tick would.
func Healthcheck(db Prober) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		var exists bool
		if err := db.QueryRow(ctx, subscribersTableQuery).Scan(&exists); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if !exists {
			return errors.Join(ErrHealthcheckFailed, ErrSchemaMissing)
		}
		return nil
	}
}
