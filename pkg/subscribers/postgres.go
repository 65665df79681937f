package subscribers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const activeSubscribersQuery = `SELECT email FROM subscribers WHERE active ORDER BY subscribed_at, id`

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads active recipients from the subscribers table created by pg.Migrate.
type Postgres struct {
	db Querier
}

// NewPostgres creates a directory backed by db.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) ActiveRecipients(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, activeSubscribersQuery)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return clean(emails), nil
}
