package travelinfo

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for TravelInfo rows.
// At most one active row exists per (user, destination), enforced by a
// unique index and conflict-target upsert.
type Repository interface {
	Upsert(ctx context.Context, ti *models.TravelInfo) error
	GetByUserDestination(ctx context.Context, userID, destination string) (*models.TravelInfo, error)
	ListByUser(ctx context.Context, userID string) ([]models.TravelInfo, error)
	DeleteByUser(ctx context.Context, userID string) error
}
