package entrypacks

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for EntryPack rows.
type Repository interface {
	// Upsert inserts a new pack or replaces an existing one by ID.
	// The whole row is written in one statement, so status, display summary
	// and submission history always change together.
	Upsert(ctx context.Context, p *models.EntryPack) error

	// GetByID returns one pack, or nil when absent.
	GetByID(ctx context.Context, id string) (*models.EntryPack, error)

	ListByUser(ctx context.Context, userID string) ([]models.EntryPack, error)
	ListByEntryInfo(ctx context.Context, entryInfoID string) ([]models.EntryPack, error)

	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
