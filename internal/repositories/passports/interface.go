package passports

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository describes storage operations for Passport rows.
// Implementations are backed by the local SQLite database.
type Repository interface {
	// Upsert inserts a new passport or replaces an existing one by ID.
	Upsert(ctx context.Context, p *models.Passport) error

	// GetCurrentByUser returns the user's most recently updated passport,
	// or nil when the user has none. Repeated partial saves can leave
	// duplicate rows; the newest one wins.
	GetCurrentByUser(ctx context.Context, userID string) (*models.Passport, error)

	// ListByUser returns all passport rows for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Passport, error)

	// DeleteByUser removes every passport row for a user.
	DeleteByUser(ctx context.Context, userID string) error
}
