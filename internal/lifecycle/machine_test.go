package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	packs       map[string]*models.EntryPack
	saveErr     error
	transitions []string
}

func newFakeStore(packs ...*models.EntryPack) *fakeStore {
	m := make(map[string]*models.EntryPack)
	for _, p := range packs {
		m[p.ID] = p
	}
	return &fakeStore{packs: m}
}

func (f *fakeStore) GetEntryPack(ctx context.Context, id string) (*models.EntryPack, error) {
	p, ok := f.packs[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SaveEntryPack(ctx context.Context, userID string, p *models.EntryPack) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	cp := *p
	f.packs[p.ID] = &cp
	return p.ID, nil
}

func (f *fakeStore) DeleteEntryPackRow(ctx context.Context, userID, id string) error {
	delete(f.packs, id)
	return nil
}

func (f *fakeStore) RecordTransition(ctx context.Context, userID, packID string, from, to models.PackStatus) {
	f.transitions = append(f.transitions, string(from)+"->"+string(to))
}

type fakeSnapshotter struct {
	created   []models.EntryPackSnapshot
	createErr error
	deleteErr map[string]error
}

func (f *fakeSnapshotter) Create(ctx context.Context, entryPackID string, status models.PackStatus, trigger models.SnapshotTrigger, reason string) (*models.EntryPackSnapshot, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := models.EntryPackSnapshot{
		ID: "snap-" + entryPackID, EntryPackID: entryPackID,
		Status: status, Trigger: trigger, Reason: reason,
	}
	f.created = append(f.created, s)
	return &s, nil
}

func (f *fakeSnapshotter) CountByPack(ctx context.Context, entryPackID string) (int, error) {
	n := 0
	for _, s := range f.created {
		if s.EntryPackID == entryPackID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSnapshotter) ListByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error) {
	var out []models.EntryPackSnapshot
	for _, s := range f.created {
		if s.EntryPackID == entryPackID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSnapshotter) Delete(ctx context.Context, snapshotID string) error {
	if err := f.deleteErr[snapshotID]; err != nil {
		return err
	}
	for i, s := range f.created {
		if s.ID == snapshotID {
			f.created = append(f.created[:i], f.created[i+1:]...)
			break
		}
	}
	return nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func pack(id string, status models.PackStatus) *models.EntryPack {
	return &models.EntryPack{ID: id, UserID: "u1", EntryInfoID: "ei1", Status: status, CreatedAt: time.Now().UTC()}
}

func submission() *models.SubmissionRecord {
	return &models.SubmissionRecord{CardNumber: "C-1", Method: "online"}
}

func TestTransition_SubmittedPersistsSubmissionAndSnapshots(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackInProgress))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())

	got, err := m.TransitionState(context.Background(), "pk1", models.PackSubmitted, TransitionContext{Submission: submission()})
	require.NoError(t, err)
	assert.Equal(t, models.PackSubmitted, got.Status)
	require.NotNil(t, got.Submission)
	assert.False(t, got.Submission.SubmittedAt.IsZero())
	require.Len(t, got.Attempts, 1)

	assert.Equal(t, models.PackSubmitted, st.packs["pk1"].Status)
	require.Len(t, sn.created, 1)
	assert.Equal(t, models.SnapshotAutomatic, sn.created[0].Trigger)
	assert.Contains(t, sn.created[0].Reason, "C-1")
	assert.Equal(t, []string{"in_progress->submitted"}, st.transitions)
}

func TestTransition_SubmittedRequiresSubmissionRecord(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackInProgress))
	m := New(st, &fakeSnapshotter{}, discardLogger())

	_, err := m.TransitionState(context.Background(), "pk1", models.PackSubmitted, TransitionContext{})
	require.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Equal(t, models.PackInProgress, st.packs["pk1"].Status)
}

func TestTransition_CompletedTakesManualSnapshot(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())

	_, err := m.TransitionState(context.Background(), "pk1", models.PackCompleted, TransitionContext{
		CompletedBy: "traveller", CompletedAt: "airport", CompletedVia: "kiosk",
	})
	require.NoError(t, err)
	require.Len(t, sn.created, 1)
	assert.Equal(t, models.SnapshotManual, sn.created[0].Trigger)
	assert.Contains(t, sn.created[0].Reason, "kiosk")
}

func TestTransition_ExpiredTakesAutomaticSnapshotWithReason(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())

	_, err := m.TransitionState(context.Background(), "pk1", models.PackExpired, TransitionContext{
		ExpiryReason: "arrival date + 24h elapsed",
	})
	require.NoError(t, err)
	require.Len(t, sn.created, 1)
	assert.Equal(t, models.SnapshotAutomatic, sn.created[0].Trigger)
	assert.Equal(t, "arrival date + 24h elapsed", sn.created[0].Reason)
}

func TestTransition_IllegalMoveFailsAndChangesNothing(t *testing.T) {
	tests := []struct {
		name   string
		from   models.PackStatus
		target models.PackStatus
	}{
		{"in_progress to completed", models.PackInProgress, models.PackCompleted},
		{"in_progress to expired", models.PackInProgress, models.PackExpired},
		{"in_progress to archived", models.PackInProgress, models.PackArchived},
		{"completed to submitted", models.PackCompleted, models.PackSubmitted},
		{"archived is terminal", models.PackArchived, models.PackSubmitted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore(pack("pk1", tc.from))
			sn := &fakeSnapshotter{}
			m := New(st, sn, discardLogger())

			_, err := m.TransitionState(context.Background(), "pk1", tc.target, TransitionContext{Submission: submission()})
			require.ErrorIs(t, err, common.ErrInvalidTransition)
			assert.Equal(t, tc.from, st.packs["pk1"].Status)
			assert.Empty(t, sn.created)
		})
	}
}

func TestTransition_UnknownPack(t *testing.T) {
	m := New(newFakeStore(), &fakeSnapshotter{}, discardLogger())

	_, err := m.TransitionState(context.Background(), "ghost", models.PackSubmitted, TransitionContext{Submission: submission()})
	require.ErrorIs(t, err, common.ErrEntryPackNotFound)
}

func TestTransition_ArchivedSnapshotsOnlyWhenNoneExists(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())
	ctx := context.Background()

	// submitted -> expired creates a snapshot, then expired -> archived must not
	_, err := m.TransitionState(ctx, "pk1", models.PackExpired, TransitionContext{})
	require.NoError(t, err)
	require.Len(t, sn.created, 1)

	_, err = m.TransitionState(ctx, "pk1", models.PackArchived, TransitionContext{})
	require.NoError(t, err)
	assert.Len(t, sn.created, 1, "archival must not duplicate an existing snapshot")
}

func TestTransition_ArchivedSnapshotsWhenPackHasNone(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())
	ctx := context.Background()

	// remove the submitted-snapshot to simulate a pack with no snapshots
	stNoSnap := newFakeStore(pack("pk2", models.PackCompleted))
	mNoSnap := New(stNoSnap, sn, discardLogger())

	_, err := mNoSnap.TransitionState(ctx, "pk2", models.PackArchived, TransitionContext{})
	require.NoError(t, err)
	require.Len(t, sn.created, 1)
	assert.Equal(t, "archived without prior snapshot", sn.created[0].Reason)

	// second archival attempt is illegal and must not create another snapshot
	_, err = m.TransitionState(ctx, "pk2", models.PackArchived, TransitionContext{})
	require.Error(t, err)
	assert.Len(t, sn.created, 1)
}

func TestTransition_SnapshotFailureDoesNotAbortTransition(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackInProgress))
	sn := &fakeSnapshotter{createErr: errors.New("disk full")}
	m := New(st, sn, discardLogger())

	got, err := m.TransitionState(context.Background(), "pk1", models.PackSubmitted, TransitionContext{Submission: submission()})
	require.NoError(t, err)
	assert.Equal(t, models.PackSubmitted, got.Status)
	assert.Equal(t, models.PackSubmitted, st.packs["pk1"].Status)
}

func TestDeleteEntryPack_CascadesToSnapshots(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{}
	m := New(st, sn, discardLogger())
	ctx := context.Background()

	_, err := sn.Create(ctx, "pk1", models.PackSubmitted, models.SnapshotAutomatic, "r")
	require.NoError(t, err)

	res, err := m.DeleteEntryPack(ctx, "pk1")
	require.NoError(t, err)
	assert.Equal(t, CascadeResult{TotalSnapshots: 1, DeletedSnapshots: 1}, res)
	assert.NotContains(t, st.packs, "pk1")
}

func TestDeleteEntryPack_ReportsPartialSnapshotCleanup(t *testing.T) {
	st := newFakeStore(pack("pk1", models.PackSubmitted))
	sn := &fakeSnapshotter{deleteErr: map[string]error{}}
	m := New(st, sn, discardLogger())
	ctx := context.Background()

	s1, err := sn.Create(ctx, "pk1", models.PackSubmitted, models.SnapshotAutomatic, "r")
	require.NoError(t, err)
	sn.created = append(sn.created, models.EntryPackSnapshot{ID: "snap-extra", EntryPackID: "pk1"})
	sn.deleteErr[s1.ID] = errors.New("locked")

	res, err := m.DeleteEntryPack(ctx, "pk1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalSnapshots)
	assert.Equal(t, 1, res.DeletedSnapshots)
	assert.NotContains(t, st.packs, "pk1", "pack is removable even with incomplete snapshot cleanup")
}
