// Package migrations holds the versioned schema history of the local
// database. The baseline lives in embedded SQL; later steps are Go migrations
// that guard every ALTER behind an existence check, so running the whole
// chain repeatedly is harmless. Goose's version table is the stored
// schema-version marker.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/mkazakovs/entrypack/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// tableExists reports whether a table is present in the SQLite schema.
func tableExists(ctx context.Context, db dbx.DBTX, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// columnExists reports whether a column is present on a table.
func columnExists(ctx context.Context, db dbx.DBTX, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// addColumnIfMissing applies one additive ALTER, skipping it when the column
// already exists.
func addColumnIfMissing(ctx context.Context, db dbx.DBTX, table, column, definition string) error {
	ok, err := columnExists(ctx, db, table, column)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = db.ExecContext(ctx,
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	if err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func init() {
	goose.SetBaseFS(Migrations)
}

// Run applies all pending migrations to db. It is safe to call on every
// startup; applied versions are tracked in goose's version table.
func Run(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}
