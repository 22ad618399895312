package travelinfo

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

func (r *SQLiteRepository) Upsert(ctx context.Context, ti *models.TravelInfo) error {
	arrival, err := json.Marshal(ti.ArrivalLeg)
	if err != nil {
		return fmt.Errorf("failed to marshal arrival leg: %w", err)
	}
	departure, err := json.Marshal(ti.DepartureLeg)
	if err != nil {
		return fmt.Errorf("failed to marshal departure leg: %w", err)
	}

	query := `INSERT INTO travel_info
			(id, user_id, destination, purpose, arrival_leg, departure_leg,
			 accommodation, is_transit, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, destination) DO UPDATE SET
				purpose = excluded.purpose,
				arrival_leg = excluded.arrival_leg,
				departure_leg = excluded.departure_leg,
				accommodation = excluded.accommodation,
				is_transit = excluded.is_transit,
				status = excluded.status,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		ti.ID, ti.UserID, ti.Destination, ti.Purpose, string(arrival), string(departure),
		ti.Accommodation, boolToInt(ti.IsTransit), ti.Status,
		ti.CreatedAt.Unix(), ti.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert travel info: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUserDestination(ctx context.Context, userID, destination string) (*models.TravelInfo, error) {
	query := selectColumns + ` WHERE user_id = ? AND destination = ?`

	ti, err := scanTravelInfo(r.db.QueryRowContext(ctx, query, userID, destination))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select travel info: %w", err)
	}
	return ti, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.TravelInfo, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select travel info rows: %w", err)
	}
	defer rows.Close()

	var result []models.TravelInfo
	for rows.Next() {
		ti, err := scanTravelInfo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ti)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM travel_info WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete travel info: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, destination, purpose, arrival_leg, departure_leg,
		accommodation, is_transit, status, created_at, updated_at FROM travel_info`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTravelInfo(row rowScanner) (*models.TravelInfo, error) {
	var ti models.TravelInfo
	var arrival, departure string
	var transit int
	var created, updated int64
	err := row.Scan(&ti.ID, &ti.UserID, &ti.Destination, &ti.Purpose, &arrival, &departure,
		&ti.Accommodation, &transit, &ti.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(arrival), &ti.ArrivalLeg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arrival leg: %w", err)
	}
	if err := json.Unmarshal([]byte(departure), &ti.DepartureLeg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal departure leg: %w", err)
	}
	ti.IsTransit = transit != 0
	ti.CreatedAt = time.Unix(created, 0).UTC()
	ti.UpdatedAt = time.Unix(updated, 0).UTC()
	return &ti, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
