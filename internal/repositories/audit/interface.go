package audit

import (
	"context"

	"github.com/mkazakovs/entrypack/internal/models"
)

// Repository is the append-only audit log. Events are never updated; they are
// removed only by DeleteByUser during a GDPR erasure.
type Repository interface {
	Append(ctx context.Context, e *models.AuditEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error)
	DeleteByUser(ctx context.Context, userID string) error
}
