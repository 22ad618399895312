package funditems

import (
	"context"
	"database/sql"
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

func (r *SQLiteRepository) Upsert(ctx context.Context, f *models.FundItem) error {
	query := `INSERT INTO fund_items
			(id, user_id, type, amount, currency, details, photo_uri, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				amount = excluded.amount,
				currency = excluded.currency,
				details = excluded.details,
				photo_uri = excluded.photo_uri,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.UserID, string(f.Type), f.Amount, f.Currency, f.Details, f.PhotoURI,
		f.CreatedAt.Unix(), f.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert fund item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.FundItem, error) {
	query := `SELECT id, user_id, type, amount, currency, details, photo_uri, created_at, updated_at
			FROM fund_items WHERE id = ?`

	f, err := scanFundItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select fund item: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.FundItem, error) {
	query := `SELECT id, user_id, type, amount, currency, details, photo_uri, created_at, updated_at
			FROM fund_items WHERE user_id = ? ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select fund items: %w", err)
	}
	defer rows.Close()

	var result []models.FundItem
	for rows.Next() {
		f, err := scanFundItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fund_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete fund item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fund_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete fund items: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFundItem(row rowScanner) (*models.FundItem, error) {
	var f models.FundItem
	var typ string
	var created, updated int64
	err := row.Scan(&f.ID, &f.UserID, &typ, &f.Amount, &f.Currency, &f.Details,
		&f.PhotoURI, &created, &updated)
	if err != nil {
		return nil, err
	}
	f.Type = models.FundType(typ)
	f.CreatedAt = time.Unix(created, 0).UTC()
	f.UpdatedAt = time.Unix(updated, 0).UTC()
	return &f, nil
}
