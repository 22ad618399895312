package entryinfo

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for EntryInfo rows.
type Repository interface {
	Upsert(ctx context.Context, ei *models.EntryInfo) error
	GetByID(ctx context.Context, id string) (*models.EntryInfo, error)
	ListByUser(ctx context.Context, userID string) ([]models.EntryInfo, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
	DeleteByUser(ctx context.Context, userID string) error
}
