// Package snapshot captures immutable point-in-time copies of an entry pack:
// its record data, a per-photo copy manifest and the encryption metadata that
// describes how sensitive fields were protected at capture time.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/filex"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/mkazakovs/entrypack/internal/store"
)

// Store is the slice of the record store the snapshot service needs.
// *store.Store satisfies it.
type Store interface {
	GetEntryPack(ctx context.Context, id string) (*models.EntryPack, error)
	GetPassport(ctx context.Context, userID string) (*models.Passport, error)
	GetPersonalInfo(ctx context.Context, userID string) (*models.PersonalInfo, error)
	GetFundItems(ctx context.Context, userID string) ([]models.FundItem, error)
	GetTravelInfo(ctx context.Context, userID, destination string) (*models.TravelInfo, error)

	InsertSnapshot(ctx context.Context, snap *models.EntryPackSnapshot) error
	GetSnapshot(ctx context.Context, id string) (*models.EntryPackSnapshot, error)
	ListSnapshotsByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error)
	CountSnapshotsByPack(ctx context.Context, entryPackID string) (int, error)
	DeleteSnapshotRow(ctx context.Context, id string) error
}

type Service struct {
	store     Store
	photosDir string
	log       logging.Logger
}

func New(st Store, photosDir string, log logging.Logger) *Service {
	return &Service{store: st, photosDir: photosDir, log: log}
}

// Create freezes the pack's current data into a new snapshot. Photo copies
// that fail individually are recorded in the manifest and do not abort the
// capture; a destination directory that cannot be created does, and nothing
// is persisted in that case.
func (s *Service) Create(ctx context.Context, entryPackID string, status models.PackStatus, trigger models.SnapshotTrigger, reason string) (*models.EntryPackSnapshot, error) {
	pack, err := s.store.GetEntryPack(ctx, entryPackID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrEntryPackNotFound, entryPackID)
	}

	snapID := uuid.NewString()

	data, err := s.collectData(ctx, pack)
	if err != nil {
		return nil, err
	}

	manifest, err := s.copyPhotos(ctx, snapID, data.FundItems)
	if err != nil {
		return nil, err
	}

	snap := &models.EntryPackSnapshot{
		ID:          snapID,
		EntryPackID: pack.ID,
		UserID:      pack.UserID,
		Status:      status,
		Trigger:     trigger,
		Reason:      reason,
		Data:        *data,
		Manifest:    manifest,
		Encryption: models.EncryptionInfo{
			Algorithm:  "AES-256-GCM",
			KeyScheme:  "per-field",
			FieldTypes: store.SensitiveFieldTypes,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "snapshot created",
		"snapshot_id", snapID, "entry_pack_id", pack.ID, "trigger", trigger, "photos", len(manifest))
	return snap, nil
}

func (s *Service) collectData(ctx context.Context, pack *models.EntryPack) (*models.SnapshotData, error) {
	data := &models.SnapshotData{}

	passport, err := s.store.GetPassport(ctx, pack.UserID)
	if err != nil {
		return nil, err
	}
	data.Passport = passport

	personal, err := s.store.GetPersonalInfo(ctx, pack.UserID)
	if err != nil {
		return nil, err
	}
	data.PersonalInfo = personal

	funds, err := s.store.GetFundItems(ctx, pack.UserID)
	if err != nil {
		return nil, err
	}
	data.FundItems = funds

	if pack.DestinationID != "" {
		travel, err := s.store.GetTravelInfo(ctx, pack.UserID, pack.DestinationID)
		if err != nil {
			return nil, err
		}
		data.TravelInfo = travel
	}

	if pack.Submission != nil {
		sub := *pack.Submission
		data.Submission = &sub
	}
	data.Attempts = append([]models.SubmissionAttempt(nil), pack.Attempts...)
	return data, nil
}

// copyPhotos copies every referenced fund photo into the snapshot's own
// directory. The returned manifest has one entry per fund item with a photo
// reference, whatever the outcome.
func (s *Service) copyPhotos(ctx context.Context, snapID string, funds []models.FundItem) ([]models.PhotoManifestEntry, error) {
	var withPhotos []models.FundItem
	for _, f := range funds {
		if f.PhotoURI != "" {
			withPhotos = append(withPhotos, f)
		}
	}
	if len(withPhotos) == 0 {
		return nil, nil
	}

	dir, err := filex.EnsureSubDir(filepath.Join(s.photosDir, "snapshots"), snapID)
	if err != nil {
		return nil, fmt.Errorf("snapshot photo dir: %w", err)
	}

	manifest := make([]models.PhotoManifestEntry, 0, len(withPhotos))
	for _, f := range withPhotos {
		entry := models.PhotoManifestEntry{
			FundItemID:   f.ID,
			OriginalPath: f.PhotoURI,
		}

		if !filex.Exists(f.PhotoURI) {
			entry.Status = models.PhotoCopyMissing
			manifest = append(manifest, entry)
			continue
		}

		name := fmt.Sprintf("%s_%s_%d%s", snapID, f.ID, time.Now().UnixMilli(), filepath.Ext(f.PhotoURI))
		dst := filepath.Join(dir, name)
		n, err := filex.CopyFile(f.PhotoURI, dst)
		if err != nil {
			entry.Status = models.PhotoCopyFailed
			entry.Error = err.Error()
			s.log.Warn(ctx, "photo copy failed", "fund_item_id", f.ID, "error", err)
		} else {
			entry.Status = models.PhotoCopySuccess
			entry.SnapshotPath = dst
			entry.SizeBytes = n
		}
		manifest = append(manifest, entry)
	}
	return manifest, nil
}

// Get returns a snapshot by id, nil when absent.
func (s *Service) Get(ctx context.Context, snapshotID string) (*models.EntryPackSnapshot, error) {
	return s.store.GetSnapshot(ctx, snapshotID)
}

// ListByPack returns all snapshots of one entry pack, newest first.
func (s *Service) ListByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error) {
	return s.store.ListSnapshotsByPack(ctx, entryPackID)
}

func (s *Service) CountByPack(ctx context.Context, entryPackID string) (int, error) {
	return s.store.CountSnapshotsByPack(ctx, entryPackID)
}

// Delete removes a snapshot row and its copied photo files. Photo cleanup
// failures are logged: the row removal is the primary effect.
func (s *Service) Delete(ctx context.Context, snapshotID string) error {
	if err := s.store.DeleteSnapshotRow(ctx, snapshotID); err != nil {
		return err
	}
	dir := filepath.Join(s.photosDir, "snapshots", snapshotID)
	if err := os.RemoveAll(dir); err != nil {
		s.log.Warn(ctx, "snapshot photo cleanup failed", "snapshot_id", snapshotID, "error", err)
	}
	return nil
}
