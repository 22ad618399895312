package funditems

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for FundItem rows.
type Repository interface {
	// Upsert inserts a new fund item or replaces an existing one by ID.
	Upsert(ctx context.Context, f *models.FundItem) error

	// GetByID returns one fund item, or nil when absent.
	GetByID(ctx context.Context, id string) (*models.FundItem, error)

	// ListByUser returns all of a user's fund items, oldest first.
	ListByUser(ctx context.Context, userID string) ([]models.FundItem, error)

	// DeleteByID removes one fund item.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUser removes every fund item for a user.
	DeleteByUser(ctx context.Context, userID string) error
}
