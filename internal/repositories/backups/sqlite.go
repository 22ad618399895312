package backups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.CloudBackupMetadata) error {
	var syncedAt sql.NullInt64
	if m.SyncedAt != nil {
		syncedAt = sql.NullInt64{Int64: m.SyncedAt.Unix(), Valid: true}
	}

	query := `INSERT INTO backups
			(id, created_at, type, entry_pack_count, include_photos, app_version, device_info,
			 file_path, file_size, encrypted, encryption_method, provider, sync_status, sync_error, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				entry_pack_count = excluded.entry_pack_count,
				file_path = excluded.file_path,
				file_size = excluded.file_size,
				encrypted = excluded.encrypted,
				encryption_method = excluded.encryption_method,
				provider = excluded.provider,
				sync_status = excluded.sync_status,
				sync_error = excluded.sync_error,
				synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.CreatedAt.Unix(), string(m.Type), m.EntryPackCount, boolToInt(m.IncludePhotos),
		m.AppVersion, m.DeviceInfo, m.FilePath, m.FileSize, boolToInt(m.Encrypted),
		m.EncryptionMethod, m.Provider, string(m.SyncStatus), m.SyncError, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert backup metadata: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.CloudBackupMetadata, error) {
	m, err := scanBackup(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select backup metadata: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) List(ctx context.Context, types ...models.BackupType) ([]models.CloudBackupMetadata, error) {
	query := selectColumns
	var args []any
	if len(types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
		query += ` WHERE type IN (` + placeholders + `)`
		for _, t := range types {
			args = append(args, string(t))
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select backup metadata rows: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.CloudBackupMetadata, error) {
	query := selectColumns + ` WHERE sync_status IN (?, ?) ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, string(models.SyncPending), string(models.SyncFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced backups: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete backup metadata: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, created_at, type, entry_pack_count, include_photos, app_version,
		device_info, file_path, file_size, encrypted, encryption_method, provider, sync_status,
		sync_error, synced_at FROM backups`

type rowScanner interface {
	Scan(dest ...any) error
}

func collect(rows *sql.Rows) ([]models.CloudBackupMetadata, error) {
	var result []models.CloudBackupMetadata
	for rows.Next() {
		m, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func scanBackup(row rowScanner) (*models.CloudBackupMetadata, error) {
	var m models.CloudBackupMetadata
	var typ, syncStatus string
	var created int64
	var includePhotos, encrypted int
	var syncedAt sql.NullInt64
	err := row.Scan(&m.ID, &created, &typ, &m.EntryPackCount, &includePhotos, &m.AppVersion,
		&m.DeviceInfo, &m.FilePath, &m.FileSize, &encrypted, &m.EncryptionMethod,
		&m.Provider, &syncStatus, &m.SyncError, &syncedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = time.Unix(created, 0).UTC()
	m.Type = models.BackupType(typ)
	m.IncludePhotos = includePhotos != 0
	m.Encrypted = encrypted != 0
	m.SyncStatus = models.CloudSyncStatus(syncStatus)
	if syncedAt.Valid {
		t := time.Unix(syncedAt.Int64, 0).UTC()
		m.SyncedAt = &t
	}
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
