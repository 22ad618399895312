package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/cryptox"
	"github.com/mkazakovs/entrypack/internal/filex"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/sethvargo/go-retry"
)

// EncryptionMethod values recorded on cloud backup metadata.
const (
	EncryptionPassword   = "password"
	EncryptionDefaultKey = "default-key"
)

// CreateCloudBackup builds a local backup, encrypts the archive and routes it
// to the provider. With an empty password the artifact is protected by the
// install's default key instead. A failed upload is never dropped silently:
// the metadata row keeps sync status failed with the reason, for the pending
// sync loop to retry.
func (s *Service) CreateCloudBackup(ctx context.Context, password string) (*models.CloudBackupMetadata, error) {
	local, err := s.CreateBackup(ctx, Options{Type: models.BackupAutomatic})
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(s.cfg.CloudStagingDir)
	if err != nil {
		return nil, err
	}

	cloudID := uuid.NewString()
	encPath := filepath.Join(dir, "cloud_"+cloudID+".enc")

	method, pw := EncryptionPassword, password
	if password == "" {
		method, pw = EncryptionDefaultKey, s.defaultKeyPassword()
	}
	if err := cryptox.EncryptFileWithPassword(local.FilePath, encPath, []byte(pw)); err != nil {
		return nil, fmt.Errorf("encrypt backup: %w", err)
	}
	size, err := filex.FileSize(encPath)
	if err != nil {
		return nil, err
	}

	meta := &models.CloudBackupMetadata{
		BackupMetadata: models.BackupMetadata{
			ID:               cloudID,
			CreatedAt:        time.Now().UTC(),
			Type:             models.BackupCloud,
			EntryPackCount:   local.EntryPackCount,
			AppVersion:       s.cfg.AppVersion,
			DeviceInfo:       s.cfg.DeviceInfo,
			FilePath:         encPath,
			FileSize:         size,
			Encrypted:        true,
			EncryptionMethod: method,
		},
		Provider:   s.cfg.Provider,
		SyncStatus: models.SyncPending,
	}
	if err := s.writeSidecar(meta); err != nil {
		return nil, err
	}
	if err := s.store.UpsertBackupRecord(ctx, meta); err != nil {
		return nil, err
	}

	s.uploadAndMark(ctx, meta)
	return meta, nil
}

func (s *Service) uploadAndMark(ctx context.Context, m *models.CloudBackupMetadata) {
	err := s.upload(ctx, m)
	if err != nil {
		s.log.Warn(ctx, "cloud upload failed", "backup_id", m.ID, "error", err)
	} else {
		s.log.Info(ctx, "cloud backup synced", "backup_id", m.ID)
	}
	s.markSyncOutcome(ctx, m, err)
}

func (s *Service) upload(ctx context.Context, m *models.CloudBackupMetadata) error {
	if s.uploader == nil {
		return errors.New("no cloud provider configured")
	}
	return s.uploader.Upload(ctx, m.FilePath, "backups/"+filepath.Base(m.FilePath))
}

// SyncResult is one item of a pending-sync pass.
type SyncResult struct {
	BackupID string
	Synced   bool
	Error    string
}

// SyncPendingCloudBackups retries every pending or failed cloud record with
// exponential backoff and reports a per-item result list.
func (s *Service) SyncPendingCloudBackups(ctx context.Context) ([]SyncResult, error) {
	list, err := s.store.ListUnsyncedBackupRecords(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, 0, len(list))
	for i := range list {
		m := &list[i]
		backoff := retry.WithMaxRetries(3, retry.NewExponential(s.cfg.SyncBackoff))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if s.uploader == nil {
				return errors.New("no cloud provider configured")
			}
			if err := s.upload(ctx, m); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		s.markSyncOutcome(ctx, m, err)
		r := SyncResult{BackupID: m.ID, Synced: err == nil}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Service) markSyncOutcome(ctx context.Context, m *models.CloudBackupMetadata, err error) {
	if err != nil {
		m.SyncStatus = models.SyncFailed
		m.SyncError = err.Error()
	} else {
		now := time.Now().UTC()
		m.SyncStatus = models.SyncSynced
		m.SyncError = ""
		m.SyncedAt = &now
	}
	if uerr := s.store.UpsertBackupRecord(ctx, m); uerr != nil {
		s.log.Error(ctx, "failed to persist sync state", "backup_id", m.ID, "error", uerr)
	}
}

// defaultKeyPassword derives the install's fallback archive key material from
// a fixed application salt and the device identity string.
func (s *Service) defaultKeyPassword() string {
	return "entrypack-device-key:" + s.cfg.DeviceInfo
}
