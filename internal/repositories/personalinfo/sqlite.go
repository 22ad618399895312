package personalinfo

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

func (r *SQLiteRepository) Upsert(ctx context.Context, pi *models.PersonalInfo) error {
	query := `INSERT INTO personal_info
			(id, user_id, phone, phone_country_code, email, home_address, occupation,
			 residence_country, residence_province, gender, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				phone = excluded.phone,
				phone_country_code = excluded.phone_country_code,
				email = excluded.email,
				home_address = excluded.home_address,
				occupation = excluded.occupation,
				residence_country = excluded.residence_country,
				residence_province = excluded.residence_province,
				gender = excluded.gender,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		pi.ID, pi.UserID, pi.Phone, pi.PhoneCountryCode, pi.Email, pi.HomeAddress,
		pi.Occupation, pi.ResidenceCountry, pi.ResidenceProvince, pi.Gender,
		pi.CreatedAt.Unix(), pi.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert personal info: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUser(ctx context.Context, userID string) (*models.PersonalInfo, error) {
	query := `SELECT id, user_id, phone, phone_country_code, email, home_address, occupation,
			residence_country, residence_province, gender, created_at, updated_at
			FROM personal_info WHERE user_id = ?`

	var pi models.PersonalInfo
	var created, updated int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&pi.ID, &pi.UserID, &pi.Phone, &pi.PhoneCountryCode, &pi.Email, &pi.HomeAddress,
		&pi.Occupation, &pi.ResidenceCountry, &pi.ResidenceProvince, &pi.Gender,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select personal info: %w", err)
	}
	pi.CreatedAt = time.Unix(created, 0).UTC()
	pi.UpdatedAt = time.Unix(updated, 0).UTC()
	return &pi, nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM personal_info WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete personal info: %w", err)
	}
	return nil
}
