package personalinfo

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for PersonalInfo rows.
// A user has at most one row, enforced by a unique index on user_id.
type Repository interface {
	// Upsert inserts or replaces the user's personal info row.
	Upsert(ctx context.Context, pi *models.PersonalInfo) error

	// GetByUser returns the user's row, or nil when absent.
	GetByUser(ctx context.Context, userID string) (*models.PersonalInfo, error)

	// DeleteByUser removes the user's row.
	DeleteByUser(ctx context.Context, userID string) error
}
