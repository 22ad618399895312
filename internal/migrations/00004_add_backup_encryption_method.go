package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddBackupEncryptionMethod, downNoop)
}

func upAddBackupEncryptionMethod(ctx context.Context, tx *sql.Tx) error {
	if err := addColumnIfMissing(ctx, tx, "backups", "encryption_method", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}
	return addColumnIfMissing(ctx, tx, "backups", "synced_at", `INTEGER`)
}
