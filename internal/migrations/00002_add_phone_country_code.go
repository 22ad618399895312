package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddPhoneCountryCode, downNoop)
}

func upAddPhoneCountryCode(ctx context.Context, tx *sql.Tx) error {
	return addColumnIfMissing(ctx, tx, "personal_info", "phone_country_code", `TEXT NOT NULL DEFAULT ''`)
}

func downNoop(ctx context.Context, tx *sql.Tx) error {
	return nil
}
