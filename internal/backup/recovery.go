package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/cryptox"
	"github.com/mkazakovs/entrypack/internal/filex"
	"github.com/mkazakovs/entrypack/internal/models"
)

// ConflictResolution tells the importer what to do when a restored record
// collides with an existing one.
type ConflictResolution string

const (
	ResolveAsk       ConflictResolution = "ask"
	ResolveOverwrite ConflictResolution = "overwrite"
	ResolveSkip      ConflictResolution = "skip"
)

// RestoreOptions controls a selective recovery run.
type RestoreOptions struct {
	ConflictResolution ConflictResolution
	SelectedEntryPacks []string
	DryRun             bool
}

// RecoveryResult reports what a restore run did.
type RecoveryResult struct {
	RecoveredCount int
	SkippedCount   int
	Conflicts      []string
}

// Importer consumes a decrypted archive file and writes its records back into
// the store, honoring the conflict policy.
type Importer interface {
	Import(ctx context.Context, archivePath string, opts RestoreOptions) (*RecoveryResult, error)
}

// PerformFullRecovery restores everything from a backup, overwriting local
// state on conflicts.
func (s *Service) PerformFullRecovery(ctx context.Context, backupID, password string) (*RecoveryResult, error) {
	return s.PerformSelectiveRecovery(ctx, backupID, password, RestoreOptions{
		ConflictResolution: ResolveOverwrite,
	})
}

// PerformSelectiveRecovery decrypts the backup artifact when needed and hands
// it to the importer. Reading never mutates the stored artifact: encrypted
// content is decrypted into a scratch copy that is removed afterwards.
func (s *Service) PerformSelectiveRecovery(ctx context.Context, backupID, password string, opts RestoreOptions) (*RecoveryResult, error) {
	rec, err := s.store.GetBackupRecord(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: backup %s", common.ErrNotFound, backupID)
	}
	if opts.ConflictResolution == "" {
		opts.ConflictResolution = ResolveAsk
	}

	plainPath, cleanup, err := s.materialize(rec, password)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res, err := s.importer.Import(ctx, plainPath, opts)
	if err != nil {
		return nil, err
	}

	s.store.AppendAuditEvent(ctx, models.AuditEvent{
		Type:   models.AuditBackupRestored,
		UserID: s.cfg.UserID,
		Metadata: map[string]string{
			"backup_id": backupID,
			"policy":    string(opts.ConflictResolution),
		},
	})
	s.log.Info(ctx, "backup restored",
		"backup_id", backupID, "recovered", res.RecoveredCount, "skipped", res.SkippedCount)
	return res, nil
}

// Preview summarizes an archive's contents without restoring anything.
type Preview struct {
	BackupID      string
	CreatedAt     string
	AppVersion    string
	DeviceInfo    string
	IncludePhotos bool
	EntryCount    int
	EntryInfoIDs  []string
}

// PreviewBackupContents inspects an archive without mutating any stored data.
func (s *Service) PreviewBackupContents(ctx context.Context, backupID, password string) (*Preview, error) {
	rec, archive, err := s.openArchive(ctx, backupID, password)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		BackupID:      rec.ID,
		CreatedAt:     archive.CreatedAt.Format("2006-01-02 15:04:05"),
		AppVersion:    archive.AppVersion,
		DeviceInfo:    archive.DeviceInfo,
		IncludePhotos: archive.IncludePhotos,
		EntryCount:    len(archive.Entries),
	}
	for _, e := range archive.Entries {
		p.EntryInfoIDs = append(p.EntryInfoIDs, e.EntryInfoID)
	}
	return p, nil
}

// ValidationResult is the outcome of an integrity check. Warnings do not make
// a backup invalid: size drift from encryption padding and stale metadata
// counts are expected.
type ValidationResult struct {
	Valid    bool
	Warnings []string
}

// ValidateBackupIntegrity checks a backup without restoring it. Missing
// metadata, a missing artifact or unparseable content are hard failures;
// size or entry-count drift against the metadata only warns.
func (s *Service) ValidateBackupIntegrity(ctx context.Context, backupID, password string) (*ValidationResult, error) {
	rec, err := s.store.GetBackupRecord(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no metadata for backup %s", common.ErrIntegrity, backupID)
	}
	if !filex.Exists(rec.FilePath) {
		return nil, fmt.Errorf("%w: backup file missing: %s", common.ErrIntegrity, rec.FilePath)
	}

	plainPath, cleanup, err := s.materialize(rec, password)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	archive, err := readArchive(plainPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIntegrity, err)
	}

	res := &ValidationResult{Valid: true}
	if size, err := filex.FileSize(rec.FilePath); err == nil && size != rec.FileSize {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("file size %d does not match recorded %d", size, rec.FileSize))
	}
	if len(archive.Entries) != rec.EntryPackCount {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("archive holds %d entries, metadata records %d", len(archive.Entries), rec.EntryPackCount))
	}
	return res, nil
}

func (s *Service) openArchive(ctx context.Context, backupID, password string) (*models.CloudBackupMetadata, *Archive, error) {
	rec, err := s.store.GetBackupRecord(ctx, backupID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: no metadata for backup %s", common.ErrIntegrity, backupID)
	}
	if !filex.Exists(rec.FilePath) {
		return nil, nil, fmt.Errorf("%w: backup file missing: %s", common.ErrIntegrity, rec.FilePath)
	}

	plainPath, cleanup, err := s.materialize(rec, password)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	archive, err := readArchive(plainPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrIntegrity, err)
	}
	return rec, archive, nil
}

// materialize returns a readable plaintext path for the backup artifact. For
// encrypted artifacts that is a scratch copy in a temp dir; the returned
// cleanup removes it and must always be called.
func (s *Service) materialize(rec *models.CloudBackupMetadata, password string) (string, func(), error) {
	if !rec.Encrypted {
		return rec.FilePath, func() {}, nil
	}

	pw := password
	switch rec.EncryptionMethod {
	case EncryptionDefaultKey:
		pw = s.defaultKeyPassword()
	default:
		if password == "" {
			return "", nil, fmt.Errorf("%w: backup %s", common.ErrPasswordRequired, rec.ID)
		}
	}

	tmpDir, err := os.MkdirTemp("", "entrypack-restore-*")
	if err != nil {
		return "", nil, fmt.Errorf("scratch dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	dst := filepath.Join(tmpDir, "archive.json")
	if err := cryptox.DecryptFileWithPassword(rec.FilePath, dst, []byte(pw)); err != nil {
		cleanup()
		return "", nil, err
	}
	return dst, cleanup, nil
}

func readArchive(path string) (*Archive, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var a Archive
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	return &a, nil
}
