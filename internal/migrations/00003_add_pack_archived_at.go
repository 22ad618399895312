package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddPackArchivedAt, downNoop)
}

func upAddPackArchivedAt(ctx context.Context, tx *sql.Tx) error {
	return addColumnIfMissing(ctx, tx, "entry_packs", "archived_at", `INTEGER`)
}
