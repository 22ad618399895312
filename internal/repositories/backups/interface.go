package backups

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository stores backup metadata rows. Local and cloud records share one
// table; cloud rows carry a provider and sync status.
type Repository interface {
	Upsert(ctx context.Context, m *models.CloudBackupMetadata) error
	GetByID(ctx context.Context, id string) (*models.CloudBackupMetadata, error)

	// List returns all records of the given types, newest first.
	List(ctx context.Context, types ...models.BackupType) ([]models.CloudBackupMetadata, error)

	// ListUnsynced returns cloud records whose sync status is pending or failed.
	ListUnsynced(ctx context.Context) ([]models.CloudBackupMetadata, error)

	DeleteByID(ctx context.Context, id string) error
}
