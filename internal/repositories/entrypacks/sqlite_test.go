package entrypacks

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

func newPack(id string) *models.EntryPack {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.EntryPack{
		ID:          id,
		EntryInfoID: "ei1",
		UserID:      "u1",
		Status:      models.PackInProgress,
		Attempts:    []models.SubmissionAttempt{},
		Documents:   []models.DocumentRef{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUpsert_RoundTripsSubmissionAndAttempts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	p := newPack("pk1")
	submittedAt := time.Now().UTC().Truncate(time.Second)
	p.Status = models.PackSubmitted
	p.Submission = &models.SubmissionRecord{
		CardNumber:  "C-42",
		QRCodeURI:   "file:///qr.png",
		Method:      "online",
		SubmittedAt: submittedAt,
	}
	p.Attempts = []models.SubmissionAttempt{
		{AttemptedAt: submittedAt, Method: "online", Success: true},
	}
	require.NoError(t, r.Upsert(ctx, p))

	got, err := r.GetByID(ctx, "pk1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.PackSubmitted, got.Status)
	require.NotNil(t, got.Submission)
	assert.Equal(t, "C-42", got.Submission.CardNumber)
	require.Len(t, got.Attempts, 1)
	assert.True(t, got.Attempts[0].Success)
}

func TestUpsert_ReplacesWholeRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	p := newPack("pk1")
	require.NoError(t, r.Upsert(ctx, p))

	archived := time.Now().UTC().Truncate(time.Second)
	p.Status = models.PackArchived
	p.ArchivedAt = &archived
	p.Display = models.DisplayStatus{Label: "Archived", CompletionPercent: 100}
	require.NoError(t, r.Upsert(ctx, p))

	got, err := r.GetByID(ctx, "pk1")
	require.NoError(t, err)
	assert.Equal(t, models.PackArchived, got.Status)
	require.NotNil(t, got.ArchivedAt)
	assert.Equal(t, archived, *got.ArchivedAt)
	assert.Equal(t, "Archived", got.Display.Label)
}

func TestGetByID_ReturnsNilWhenAbsent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListByEntryInfo(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := newPack("pk1")
	b := newPack("pk2")
	b.CreatedAt = b.CreatedAt.Add(time.Minute)
	c := newPack("pk3")
	c.EntryInfoID = "other"
	for _, p := range []*models.EntryPack{a, b, c} {
		require.NoError(t, r.Upsert(ctx, p))
	}

	got, err := r.ListByEntryInfo(ctx, "ei1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pk1", got[0].ID)
	assert.Equal(t, "pk2", got[1].ID)
}
