package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"lotledger/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates all tables and indexes if they do not exist.
// The schema is idempotent, so running it against an already
// provisioned database is a no-op.
func ApplySchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema applied")
	return nil
}
