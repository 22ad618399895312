package snapshots

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mkazakovs/entrypack/internal/migrations"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

func newSnapshot(id, packID string) *models.EntryPackSnapshot {
	return &models.EntryPackSnapshot{
		ID:          id,
		EntryPackID: packID,
		UserID:      "u1",
		Status:      models.PackSubmitted,
		Trigger:     models.SnapshotAutomatic,
		Data: models.SnapshotData{
			Passport: &models.Passport{ID: "p1", UserID: "u1", FullName: "Jane"},
		},
		Manifest: []models.PhotoManifestEntry{
			{FundItemID: "f1", OriginalPath: "/photos/f1.jpg", Status: models.PhotoCopyMissing},
		},
		Encryption: models.EncryptionInfo{Algorithm: "AES-256-GCM", KeyScheme: "per-field"},
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestInsertAndGet_RoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	s := newSnapshot("s1", "pk1")
	require.NoError(t, r.Insert(ctx, s))

	got, err := r.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.PackSubmitted, got.Status)
	require.NotNil(t, got.Data.Passport)
	assert.Equal(t, "Jane", got.Data.Passport.FullName)
	require.Len(t, got.Manifest, 1)
	assert.Equal(t, models.PhotoCopyMissing, got.Manifest[0].Status)
}

func TestInsert_DuplicateIDFails(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newSnapshot("s1", "pk1")))
	require.Error(t, r.Insert(ctx, newSnapshot("s1", "pk1")))
}

func TestCountByPack(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newSnapshot("s1", "pk1")))
	require.NoError(t, r.Insert(ctx, newSnapshot("s2", "pk1")))
	require.NoError(t, r.Insert(ctx, newSnapshot("s3", "pk2")))

	n, err := r.CountByPack(ctx, "pk1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.CountByPack(ctx, "none")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDeleteByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newSnapshot("s1", "pk1")))
	require.NoError(t, r.DeleteByID(ctx, "s1"))

	got, err := r.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
