package store

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// UpsertBackupRecord writes the metadata row for a local or cloud backup.
// Sync-state updates go through the same call.
func (s *Store) UpsertBackupRecord(ctx context.Context, m *models.CloudBackupMetadata) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.backups(s.db).Upsert(ctx, m); err != nil {
		return storageErr("upsert backup record", err)
	}
	return nil
}

func (s *Store) GetBackupRecord(ctx context.Context, id string) (*models.CloudBackupMetadata, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, err := s.backups(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get backup record", err)
	}
	return m, nil
}

func (s *Store) ListBackupRecords(ctx context.Context, types ...models.BackupType) ([]models.CloudBackupMetadata, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.backups(s.db).List(ctx, types...)
	if err != nil {
		return nil, storageErr("list backup records", err)
	}
	return list, nil
}

func (s *Store) ListUnsyncedBackupRecords(ctx context.Context) ([]models.CloudBackupMetadata, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.backups(s.db).ListUnsynced(ctx)
	if err != nil {
		return nil, storageErr("list unsynced backup records", err)
	}
	return list, nil
}

func (s *Store) DeleteBackupRecord(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.backups(s.db).DeleteByID(ctx, id); err != nil {
		return storageErr("delete backup record", err)
	}
	return nil
}

// AppendAuditEvent lets collaborating services record their own audit rows
// (backup created, backup restored) through the store's single audit path.
func (s *Store) AppendAuditEvent(ctx context.Context, e models.AuditEvent) {
	if err := s.ready(); err != nil {
		return
	}
	s.appendAudit(ctx, e)
}
