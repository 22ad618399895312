package snapshots

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for EntryPackSnapshot rows.
// Snapshots are write-once: there is deliberately no update method.
type Repository interface {
	Insert(ctx context.Context, s *models.EntryPackSnapshot) error
	GetByID(ctx context.Context, id string) (*models.EntryPackSnapshot, error)
	ListByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error)
	ListByUser(ctx context.Context, userID string) ([]models.EntryPackSnapshot, error)
	CountByPack(ctx context.Context, entryPackID string) (int, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
