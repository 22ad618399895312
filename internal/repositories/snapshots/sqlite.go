package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkazakovs/entrypack/internal/dbx"
	"github.com/mkazakovs/entrypack/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert writes a new snapshot row. Plain INSERT, no conflict clause:
// snapshots are immutable, a duplicate id is a bug worth surfacing.
func (r *SQLiteRepository) Insert(ctx context.Context, s *models.EntryPackSnapshot) error {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot data: %w", err)
	}
	manifest, err := json.Marshal(s.Manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	encryption, err := json.Marshal(s.Encryption)
	if err != nil {
		return fmt.Errorf("failed to marshal encryption info: %w", err)
	}

	query := `INSERT INTO snapshots
			(id, entry_pack_id, user_id, status, trigger_kind, reason, data, manifest, encryption, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.EntryPackID, s.UserID, string(s.Status), string(s.Trigger), s.Reason,
		string(data), string(manifest), string(encryption), s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.EntryPackSnapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshot: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error) {
	return r.list(ctx, selectColumns+` WHERE entry_pack_id = ? ORDER BY created_at`, entryPackID)
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.EntryPackSnapshot, error) {
	return r.list(ctx, selectColumns+` WHERE user_id = ? ORDER BY created_at`, userID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, arg any) ([]models.EntryPackSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshots: %w", err)
	}
	defer rows.Close()

	var result []models.EntryPackSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) CountByPack(ctx context.Context, entryPackID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE entry_pack_id = ?`, entryPackID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, entry_pack_id, user_id, status, trigger_kind, reason,
		data, manifest, encryption, created_at FROM snapshots`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.EntryPackSnapshot, error) {
	var s models.EntryPackSnapshot
	var status, trigger, data, manifest, encryption string
	var created int64
	err := row.Scan(&s.ID, &s.EntryPackID, &s.UserID, &status, &trigger, &s.Reason,
		&data, &manifest, &encryption, &created)
	if err != nil {
		return nil, err
	}
	s.Status = models.PackStatus(status)
	s.Trigger = models.SnapshotTrigger(trigger)
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot data: %w", err)
	}
	if err := json.Unmarshal([]byte(manifest), &s.Manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if err := json.Unmarshal([]byte(encryption), &s.Encryption); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encryption info: %w", err)
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	return &s, nil
}
