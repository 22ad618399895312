package backup

import (
	"context"
	"os"
	"testing"

	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformFullRecovery_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ei := f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteAllUserData(ctx, "u1"))
	gone, err := f.store.GetPassport(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, gone)

	res, err := f.svc.PerformFullRecovery(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecoveredCount)
	assert.Zero(t, res.SkippedCount)

	p, err := f.store.GetPassport(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "AB1234567", p.PassportNumber)

	back, err := f.store.GetEntryInfo(ctx, ei.ID)
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, "HK", back.DestinationID)
}

func TestPerformSelectiveRecovery_ConflictPolicies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ei := f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)

	// ask: the existing entry is reported, nothing is written over
	res, err := f.svc.PerformSelectiveRecovery(ctx, meta.ID, "", RestoreOptions{ConflictResolution: ResolveAsk})
	require.NoError(t, err)
	assert.Zero(t, res.RecoveredCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{ei.ID}, res.Conflicts)

	// skip: silently skipped
	res, err = f.svc.PerformSelectiveRecovery(ctx, meta.ID, "", RestoreOptions{ConflictResolution: ResolveSkip})
	require.NoError(t, err)
	assert.Zero(t, res.RecoveredCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Empty(t, res.Conflicts)

	// overwrite: restored over the existing rows
	res, err = f.svc.PerformSelectiveRecovery(ctx, meta.ID, "", RestoreOptions{ConflictResolution: ResolveOverwrite})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecoveredCount)
}

func TestPerformSelectiveRecovery_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteAllUserData(ctx, "u1"))

	res, err := f.svc.PerformSelectiveRecovery(ctx, meta.ID, "", RestoreOptions{
		ConflictResolution: ResolveOverwrite,
		DryRun:             true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecoveredCount)

	p, err := f.store.GetPassport(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRecovery_EncryptedBackupPasswordHandling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "HK")

	meta, err := f.svc.CreateCloudBackup(ctx, "correct horse")
	require.NoError(t, err)

	_, err = f.svc.PerformFullRecovery(ctx, meta.ID, "")
	require.ErrorIs(t, err, common.ErrPasswordRequired)

	_, err = f.svc.PerformFullRecovery(ctx, meta.ID, "wrong")
	require.ErrorIs(t, err, common.ErrDecryption)

	res, err := f.svc.PerformFullRecovery(ctx, meta.ID, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecoveredCount)
}

func TestRecovery_DefaultKeyBackupNeedsNoPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "HK")

	meta, err := f.svc.CreateCloudBackup(ctx, "")
	require.NoError(t, err)

	res, err := f.svc.PerformFullRecovery(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecoveredCount)
}

func TestPreviewBackupContents_DoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ei := f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteAllUserData(ctx, "u1"))

	p, err := f.svc.PreviewBackupContents(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Equal(t, meta.ID, p.BackupID)
	assert.Equal(t, 1, p.EntryCount)
	assert.Equal(t, []string{ei.ID}, p.EntryInfoIDs)
	assert.Equal(t, "1.2.3", p.AppVersion)

	// preview restored nothing
	passport, err := f.store.GetPassport(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, passport)
}

func TestValidateBackupIntegrity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)

	res, err := f.svc.ValidateBackupIntegrity(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)

	t.Run("metadata drift only warns", func(t *testing.T) {
		drifted := *meta
		drifted.FileSize += 7
		drifted.EntryPackCount = 5
		require.NoError(t, f.store.UpsertBackupRecord(ctx, &drifted))

		res, err := f.svc.ValidateBackupIntegrity(ctx, meta.ID, "")
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Len(t, res.Warnings, 2)
	})

	t.Run("unparseable content is a hard failure", func(t *testing.T) {
		require.NoError(t, os.WriteFile(meta.FilePath, []byte("{not json"), 0o660))
		_, err := f.svc.ValidateBackupIntegrity(ctx, meta.ID, "")
		require.ErrorIs(t, err, common.ErrIntegrity)
	})

	t.Run("missing file is a hard failure", func(t *testing.T) {
		require.NoError(t, os.Remove(meta.FilePath))
		_, err := f.svc.ValidateBackupIntegrity(ctx, meta.ID, "")
		require.ErrorIs(t, err, common.ErrIntegrity)
	})

	t.Run("missing metadata is a hard failure", func(t *testing.T) {
		_, err := f.svc.ValidateBackupIntegrity(ctx, "ghost", "")
		require.ErrorIs(t, err, common.ErrIntegrity)
	})
}

func TestRecovery_RestoreAppendsAuditEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "HK")

	meta, err := f.svc.CreateBackup(ctx, Options{})
	require.NoError(t, err)

	_, err = f.svc.PerformFullRecovery(ctx, meta.ID, "")
	require.NoError(t, err)

	events, err := f.store.ListAuditEvents(ctx, "u1", 100)
	require.NoError(t, err)

	var created, restored bool
	for _, e := range events {
		switch e.Type {
		case models.AuditBackupCreated:
			created = true
		case models.AuditBackupRestored:
			restored = true
		}
	}
	assert.True(t, created)
	assert.True(t, restored)
}
