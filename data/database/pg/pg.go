package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"DevLink/config"
	"DevLink/tools/errs"
)

// NewPool opens the follow-graph pool and verifies connectivity once.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, errs.New("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, errs.WrapMsg(err, "failed to create pgx pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "failed to ping postgres")
	}
	return pool, nil
}
