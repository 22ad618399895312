package audit

import (
	"context"
	"encoding/json"
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

func (r *SQLiteRepository) Append(ctx context.Context, e *models.AuditEvent) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}
	systemInfo, err := json.Marshal(e.SystemInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal audit system info: %w", err)
	}

	query := `INSERT INTO audit_events
			(id, type, ts, user_id, entry_pack_id, snapshot_id, metadata, system_info, immutable, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, string(e.Type), e.Timestamp.Unix(), e.UserID, e.EntryPackID, e.SnapshotID,
		string(metadata), string(systemInfo), boolToInt(e.Immutable), e.Version)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error) {
	query := `SELECT id, type, ts, user_id, entry_pack_id, snapshot_id, metadata, system_info, immutable, version
			FROM audit_events WHERE user_id = ? ORDER BY ts DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit events: %w", err)
	}
	defer rows.Close()

	var result []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		var typ, metadata, systemInfo string
		var ts int64
		var immutable int
		if err := rows.Scan(&e.ID, &typ, &ts, &e.UserID, &e.EntryPackID, &e.SnapshotID,
			&metadata, &systemInfo, &immutable, &e.Version); err != nil {
			return nil, err
		}
		e.Type = models.AuditEventType(typ)
		e.Timestamp = time.Unix(ts, 0).UTC()
		e.Immutable = immutable != 0
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
		}
		if err := json.Unmarshal([]byte(systemInfo), &e.SystemInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit system info: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete audit events: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
