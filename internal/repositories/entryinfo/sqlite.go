package entryinfo

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

func (r *SQLiteRepository) Upsert(ctx context.Context, ei *models.EntryInfo) error {
	metrics, err := json.Marshal(ei.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	fundIDs, err := json.Marshal(ei.FundItemIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal fund item ids: %w", err)
	}

	query := `INSERT INTO entry_info
			(id, user_id, destination_id, trip_id, status, metrics,
			 travel_info_id, passport_id, personal_info_id, fund_item_ids, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				destination_id = excluded.destination_id,
				trip_id = excluded.trip_id,
				status = excluded.status,
				metrics = excluded.metrics,
				travel_info_id = excluded.travel_info_id,
				passport_id = excluded.passport_id,
				personal_info_id = excluded.personal_info_id,
				fund_item_ids = excluded.fund_item_ids,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		ei.ID, ei.UserID, ei.DestinationID, ei.TripID, ei.Status, string(metrics),
		ei.TravelInfoID, ei.PassportID, ei.PersonalInfoID, string(fundIDs),
		ei.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert entry info: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.EntryInfo, error) {
	ei, err := scanEntryInfo(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry info: %w", err)
	}
	return ei, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.EntryInfo, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry info rows: %w", err)
	}
	defer rows.Close()

	var result []models.EntryInfo
	for rows.Next() {
		ei, err := scanEntryInfo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ei)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM entry_info WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry info ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entry_info WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete entry info: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, destination_id, trip_id, status, metrics,
		travel_info_id, passport_id, personal_info_id, fund_item_ids, updated_at FROM entry_info`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryInfo(row rowScanner) (*models.EntryInfo, error) {
	var ei models.EntryInfo
	var metrics, fundIDs string
	var updated int64
	err := row.Scan(&ei.ID, &ei.UserID, &ei.DestinationID, &ei.TripID, &ei.Status, &metrics,
		&ei.TravelInfoID, &ei.PassportID, &ei.PersonalInfoID, &fundIDs, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metrics), &ei.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(fundIDs), &ei.FundItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fund item ids: %w", err)
	}
	ei.UpdatedAt = time.Unix(updated, 0).UTC()
	return &ei, nil
}
