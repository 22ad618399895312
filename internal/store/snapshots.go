package store

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// InsertSnapshot persists a write-once snapshot row and appends the matching
// audit event. Inserting an id that already exists is an error: snapshots are
// never overwritten.
func (s *Store) InsertSnapshot(ctx context.Context, snap *models.EntryPackSnapshot) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.snapshots(s.db).Insert(ctx, snap); err != nil {
		return storageErr("insert snapshot", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type:        models.AuditSnapshotCreated,
		UserID:      snap.UserID,
		EntryPackID: snap.EntryPackID,
		SnapshotID:  snap.ID,
		Metadata: map[string]string{
			"trigger": string(snap.Trigger),
			"status":  string(snap.Status),
		},
	})
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, id string) (*models.EntryPackSnapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	snap, err := s.snapshots(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get snapshot", err)
	}
	return snap, nil
}

func (s *Store) ListSnapshotsByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := s.snapshots(s.db).ListByPack(ctx, entryPackID)
	if err != nil {
		return nil, storageErr("list snapshots", err)
	}
	return out, nil
}

func (s *Store) CountSnapshotsByPack(ctx context.Context, entryPackID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	n, err := s.snapshots(s.db).CountByPack(ctx, entryPackID)
	if err != nil {
		return 0, storageErr("count snapshots", err)
	}
	return n, nil
}

// DeleteSnapshotRow removes a whole snapshot. Partial edits do not exist so
// this is the only way a snapshot ever changes after creation.
func (s *Store) DeleteSnapshotRow(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	snap, err := s.snapshots(s.db).GetByID(ctx, id)
	if err != nil {
		return storageErr("delete snapshot", err)
	}
	if snap == nil {
		return nil
	}
	if err := s.snapshots(s.db).DeleteByID(ctx, id); err != nil {
		return storageErr("delete snapshot", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type:        models.AuditSnapshotDeleted,
		UserID:      snap.UserID,
		EntryPackID: snap.EntryPackID,
		SnapshotID:  id,
	})
	return nil
}
