// Package pg connects to PostgreSQL with pgx/v5 and applies the embedded
// goose migrations that create the subscribers table read by
// subscribers.Postgres.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
package pg
