package entrypacks

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

func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.EntryPack) error {
	submission := ""
	if p.Submission != nil {
		b, err := json.Marshal(p.Submission)
		if err != nil {
			return fmt.Errorf("failed to marshal submission: %w", err)
		}
		submission = string(b)
	}
	attempts, err := json.Marshal(p.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}
	documents, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}
	display, err := json.Marshal(p.Display)
	if err != nil {
		return fmt.Errorf("failed to marshal display status: %w", err)
	}

	var archivedAt sql.NullInt64
	if p.ArchivedAt != nil {
		archivedAt = sql.NullInt64{Int64: p.ArchivedAt.Unix(), Valid: true}
	}

	query := `INSERT INTO entry_packs
			(id, entry_info_id, user_id, destination_id, trip_id, status,
			 submission, attempts, documents, display, created_at, updated_at, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				submission = excluded.submission,
				attempts = excluded.attempts,
				documents = excluded.documents,
				display = excluded.display,
				updated_at = excluded.updated_at,
				archived_at = excluded.archived_at
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.EntryInfoID, p.UserID, p.DestinationID, p.TripID, string(p.Status),
		submission, string(attempts), string(documents), string(display),
		p.CreatedAt.Unix(), p.UpdatedAt.Unix(), archivedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert entry pack: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.EntryPack, error) {
	p, err := scanPack(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry pack: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.EntryPack, error) {
	return r.list(ctx, selectColumns+` WHERE user_id = ? ORDER BY created_at`, userID)
}

func (r *SQLiteRepository) ListByEntryInfo(ctx context.Context, entryInfoID string) ([]models.EntryPack, error) {
	return r.list(ctx, selectColumns+` WHERE entry_info_id = ? ORDER BY created_at`, entryInfoID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, arg any) ([]models.EntryPack, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry packs: %w", err)
	}
	defer rows.Close()

	var result []models.EntryPack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entry_packs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete entry pack: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entry_packs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete entry packs: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, entry_info_id, user_id, destination_id, trip_id, status,
		submission, attempts, documents, display, created_at, updated_at, archived_at FROM entry_packs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPack(row rowScanner) (*models.EntryPack, error) {
	var p models.EntryPack
	var status, submission, attempts, documents, display string
	var created, updated int64
	var archivedAt sql.NullInt64
	err := row.Scan(&p.ID, &p.EntryInfoID, &p.UserID, &p.DestinationID, &p.TripID, &status,
		&submission, &attempts, &documents, &display, &created, &updated, &archivedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.PackStatus(status)
	if submission != "" {
		p.Submission = &models.SubmissionRecord{}
		if err := json.Unmarshal([]byte(submission), p.Submission); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(attempts), &p.Attempts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
	}
	if err := json.Unmarshal([]byte(documents), &p.Documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}
	if err := json.Unmarshal([]byte(display), &p.Display); err != nil {
		return nil, fmt.Errorf("failed to unmarshal display status: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	if archivedAt.Valid {
		t := time.Unix(archivedAt.Int64, 0).UTC()
		p.ArchivedAt = &t
	}
	return &p, nil
}
