package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	libdb "chargebook/backend/libs/db"
)

// NewPool connects to Postgres using shared library helper.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return libdb.NewPostgresPool(ctx, dsn)
}
