package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaLockKey identifies the advisory lock that serialises bootstrap
// across instances starting together.
const schemaLockKey int64 = 0x73747564656e7473

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the students table, its unique constraints and the
// updated_at trigger when they are missing. It is safe to run on every start
// and from several instances at once: the script runs in one transaction
// under a transaction-scoped advisory lock.
func EnsureSchema(ctx context.Context, db *sqlx.DB) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ensure schema: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", schemaLockKey); err != nil {
		return fmt.Errorf("ensure schema: lock: %w", err)
	}
	if _, err = tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ensure schema: commit: %w", err)
	}
	return nil
}
