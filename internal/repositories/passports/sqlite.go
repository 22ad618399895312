package passports

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

func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Passport) error {
	query := `INSERT INTO passports
			(id, user_id, passport_number, full_name, date_of_birth, nationality,
			 gender, expiry_date, issue_date, issue_place, photo_uri, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				passport_number = excluded.passport_number,
				full_name = excluded.full_name,
				date_of_birth = excluded.date_of_birth,
				nationality = excluded.nationality,
				gender = excluded.gender,
				expiry_date = excluded.expiry_date,
				issue_date = excluded.issue_date,
				issue_place = excluded.issue_place,
				photo_uri = excluded.photo_uri,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.PassportNumber, p.FullName, p.DateOfBirth, p.Nationality,
		p.Gender, p.ExpiryDate, p.IssueDate, p.IssuePlace, p.PhotoURI,
		p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert passport: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCurrentByUser(ctx context.Context, userID string) (*models.Passport, error) {
	query := `SELECT id, user_id, passport_number, full_name, date_of_birth, nationality,
			gender, expiry_date, issue_date, issue_place, photo_uri, created_at, updated_at
			FROM passports WHERE user_id = ? ORDER BY updated_at DESC, created_at DESC LIMIT 1`

	p, err := scanPassport(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select passport: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.Passport, error) {
	query := `SELECT id, user_id, passport_number, full_name, date_of_birth, nationality,
			gender, expiry_date, issue_date, issue_place, photo_uri, created_at, updated_at
			FROM passports WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select passports: %w", err)
	}
	defer rows.Close()

	var result []models.Passport
	for rows.Next() {
		p, err := scanPassport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM passports WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete passports: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPassport(row rowScanner) (*models.Passport, error) {
	var p models.Passport
	var created, updated int64
	err := row.Scan(&p.ID, &p.UserID, &p.PassportNumber, &p.FullName, &p.DateOfBirth,
		&p.Nationality, &p.Gender, &p.ExpiryDate, &p.IssueDate, &p.IssuePlace,
		&p.PhotoURI, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return &p, nil
}
