// Package backup packages a user's entry data into portable archives, keeps a
// rolling local retention window, routes encrypted copies to a cloud provider
// and restores from either with integrity checks.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/filex"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/models"
	"golang.org/x/sync/errgroup"
)

// Store is the slice of the record store the backup service needs.
// *store.Store satisfies it.
type Store interface {
	ListEntryInfoIDs(ctx context.Context, userID string) ([]string, error)
	UpsertBackupRecord(ctx context.Context, m *models.CloudBackupMetadata) error
	GetBackupRecord(ctx context.Context, id string) (*models.CloudBackupMetadata, error)
	ListBackupRecords(ctx context.Context, types ...models.BackupType) ([]models.CloudBackupMetadata, error)
	ListUnsyncedBackupRecords(ctx context.Context) ([]models.CloudBackupMetadata, error)
	DeleteBackupRecord(ctx context.Context, id string) error
	AppendAuditEvent(ctx context.Context, e models.AuditEvent)
}

// EntryExport is one entry info's contribution to a backup archive.
type EntryExport struct {
	EntryInfoID string          `json:"entryInfoId"`
	Payload     json.RawMessage `json:"payload"`
	PhotoPaths  []string        `json:"photoPaths,omitempty"`
}

// Exporter produces the per-entry payloads that go into an archive.
type Exporter interface {
	ExportEntryInfo(ctx context.Context, entryInfoID string, includePhotos bool) (*EntryExport, error)
}

// Uploader sends an encrypted backup artifact to the configured provider.
type Uploader interface {
	Upload(ctx context.Context, filePath, key string) error
}

// Archive is the on-disk format of a local backup file.
type Archive struct {
	BackupID      string        `json:"backupId"`
	CreatedAt     time.Time     `json:"createdAt"`
	AppVersion    string        `json:"appVersion"`
	DeviceInfo    string        `json:"deviceInfo"`
	IncludePhotos bool          `json:"includePhotos"`
	Entries       []EntryExport `json:"entries"`
}

// Settings configures the backup service for one install.
type Settings struct {
	UserID          string
	BackupsDir      string
	CloudStagingDir string
	Retention       int           // local backups to keep, default 10
	ExportWorkers   int           // concurrent entry exports, default 4
	SyncBackoff     time.Duration // base delay between upload retries, default 500ms
	AppVersion      string
	DeviceInfo      string
	Provider        string
}

const (
	defaultRetention     = 10
	defaultExportWorkers = 4
	defaultSyncBackoff   = 500 * time.Millisecond
)

type Service struct {
	store    Store
	exporter Exporter
	uploader Uploader
	importer Importer
	cfg      Settings
	log      logging.Logger
}

func New(st Store, exporter Exporter, importer Importer, uploader Uploader, cfg Settings, log logging.Logger) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.ExportWorkers <= 0 {
		cfg.ExportWorkers = defaultExportWorkers
	}
	if cfg.SyncBackoff <= 0 {
		cfg.SyncBackoff = defaultSyncBackoff
	}
	return &Service{store: st, exporter: exporter, importer: importer, uploader: uploader, cfg: cfg, log: log}
}

// Options controls one CreateBackup run.
type Options struct {
	Type          models.BackupType
	IncludePhotos bool
}

// CreateBackup exports every entry info into one archive, moves it into the
// backup directory under its final name and persists sidecar metadata. An
// empty dataset is not an error, it yields a zero-count backup. A cancelled
// run leaves only the staging file behind, never a final artifact.
func (s *Service) CreateBackup(ctx context.Context, opts Options) (*models.CloudBackupMetadata, error) {
	if opts.Type == "" {
		opts.Type = models.BackupManual
	}

	ids, err := s.store.ListEntryInfoIDs(ctx, s.cfg.UserID)
	if err != nil {
		return nil, err
	}

	backupID := uuid.NewString()
	now := time.Now().UTC()
	archive := Archive{
		BackupID:      backupID,
		CreatedAt:     now,
		AppVersion:    s.cfg.AppVersion,
		DeviceInfo:    s.cfg.DeviceInfo,
		IncludePhotos: opts.IncludePhotos,
	}

	entries := make([]*EntryExport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ExportWorkers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := s.exporter.ExportEntryInfo(gctx, id, opts.IncludePhotos)
			if err != nil {
				return fmt.Errorf("export entry %s: %w", id, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, e := range entries {
		archive.Entries = append(archive.Entries, *e)
	}

	dir, err := filex.EnsureDir(s.cfg.BackupsDir)
	if err != nil {
		return nil, err
	}

	staging := filepath.Join(dir, "backup_"+backupID+".staging")
	blob, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	if err := os.WriteFile(staging, blob, 0o660); err != nil {
		return nil, fmt.Errorf("write staging file: %w", err)
	}

	// the final name appears only after a complete, uncancelled write
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	final := filepath.Join(dir, fmt.Sprintf("backup_%s_%s.json", backupID, sanitizeTimestamp(now)))
	if err := filex.AtomicMove(staging, final); err != nil {
		return nil, err
	}

	size, err := filex.FileSize(final)
	if err != nil {
		return nil, err
	}

	meta := &models.CloudBackupMetadata{
		BackupMetadata: models.BackupMetadata{
			ID:             backupID,
			CreatedAt:      now,
			Type:           opts.Type,
			EntryPackCount: len(archive.Entries),
			IncludePhotos:  opts.IncludePhotos,
			AppVersion:     s.cfg.AppVersion,
			DeviceInfo:     s.cfg.DeviceInfo,
			FilePath:       final,
			FileSize:       size,
		},
	}
	if err := s.writeSidecar(meta); err != nil {
		return nil, err
	}
	if err := s.store.UpsertBackupRecord(ctx, meta); err != nil {
		return nil, err
	}
	s.store.AppendAuditEvent(ctx, models.AuditEvent{
		Type:   models.AuditBackupCreated,
		UserID: s.cfg.UserID,
		Metadata: map[string]string{
			"backup_id": backupID,
			"type":      string(opts.Type),
			"entries":   strconv.Itoa(meta.EntryPackCount),
		},
	})

	s.log.Info(ctx, "backup created", "backup_id", backupID, "entries", meta.EntryPackCount, "size", size)
	return meta, nil
}

// ListBackups returns local backup records, newest first.
func (s *Service) ListBackups(ctx context.Context) ([]models.CloudBackupMetadata, error) {
	return s.store.ListBackupRecords(ctx, models.BackupManual, models.BackupAutomatic)
}

// Details pairs a backup record with whether its artifact is still on disk.
type Details struct {
	Metadata   models.CloudBackupMetadata
	FileExists bool
}

func (s *Service) GetBackupDetails(ctx context.Context, backupID string) (*Details, error) {
	rec, err := s.store.GetBackupRecord(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: backup %s", common.ErrNotFound, backupID)
	}
	return &Details{Metadata: *rec, FileExists: filex.Exists(rec.FilePath)}, nil
}

// DeleteBackup removes the artifact, its sidecar and the metadata row.
func (s *Service) DeleteBackup(ctx context.Context, backupID string) error {
	rec, err := s.store.GetBackupRecord(ctx, backupID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: backup %s", common.ErrNotFound, backupID)
	}
	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove backup file: %w", err)
		}
		if err := os.Remove(s.sidecarPath(rec)); err != nil && !os.IsNotExist(err) {
			s.log.Warn(ctx, "backup sidecar removal failed", "backup_id", backupID, "error", err)
		}
	}
	return s.store.DeleteBackupRecord(ctx, backupID)
}

// CleanupResult reports a retention pass. Per-item delete failures are
// counted, they do not abort the cleanup of the others.
type CleanupResult struct {
	Kept    int
	Deleted int
	Failed  int
}

// CleanupOldBackups keeps only the configured number of most recent local
// backups and deletes the rest.
func (s *Service) CleanupOldBackups(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult
	list, err := s.ListBackups(ctx)
	if err != nil {
		return res, err
	}
	for i, rec := range list {
		if i < s.cfg.Retention {
			res.Kept++
			continue
		}
		if err := s.DeleteBackup(ctx, rec.ID); err != nil {
			res.Failed++
			s.log.Warn(ctx, "retention delete failed", "backup_id", rec.ID, "error", err)
			continue
		}
		res.Deleted++
	}
	return res, nil
}

func (s *Service) writeSidecar(m *models.CloudBackupMetadata) error {
	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup metadata: %w", err)
	}
	if err := os.WriteFile(s.sidecarPath(m), blob, 0o660); err != nil {
		return fmt.Errorf("write backup metadata: %w", err)
	}
	return nil
}

func (s *Service) sidecarPath(m *models.CloudBackupMetadata) string {
	return filepath.Join(filepath.Dir(m.FilePath), m.ID+"_metadata.json")
}

func sanitizeTimestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(t.Format(time.RFC3339))
}
