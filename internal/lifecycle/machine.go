// Package lifecycle owns the entry-pack state machine: which status moves are
// legal, what gets persisted with a move, and which moves capture a snapshot
// as a side effect.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/models"
)

// transitions maps each state to the set of states reachable from it.
// in_progress is initial; archived is terminal and reachable from any
// non-initial state.
var transitions = map[models.PackStatus][]models.PackStatus{
	models.PackInProgress: {models.PackSubmitted},
	models.PackSubmitted:  {models.PackCompleted, models.PackExpired, models.PackArchived},
	models.PackCompleted:  {models.PackArchived},
	models.PackExpired:    {models.PackArchived},
	models.PackArchived:   {},
}

func canTransition(from, to models.PackStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionContext carries the data a transition needs for its side effects.
type TransitionContext struct {
	// Submission is required when moving to submitted.
	Submission *models.SubmissionRecord

	// CompletedBy / CompletedAt / CompletedVia describe a manual completion.
	CompletedBy  string
	CompletedAt  string
	CompletedVia string

	// ExpiryReason describes why an automatic expiry fired
	// (e.g. "arrival date + 24h elapsed").
	ExpiryReason string
}

// PackStore is the slice of the record store the machine needs.
type PackStore interface {
	GetEntryPack(ctx context.Context, id string) (*models.EntryPack, error)
	SaveEntryPack(ctx context.Context, userID string, p *models.EntryPack) (string, error)
	DeleteEntryPackRow(ctx context.Context, userID, id string) error
	RecordTransition(ctx context.Context, userID, packID string, from, to models.PackStatus)
}

// Snapshotter captures immutable copies of a pack. Implemented by the
// snapshot service.
type Snapshotter interface {
	Create(ctx context.Context, entryPackID string, status models.PackStatus, trigger models.SnapshotTrigger, reason string) (*models.EntryPackSnapshot, error)
	CountByPack(ctx context.Context, entryPackID string) (int, error)
	ListByPack(ctx context.Context, entryPackID string) ([]models.EntryPackSnapshot, error)
	Delete(ctx context.Context, snapshotID string) error
}

// CascadeResult reports snapshot cleanup during pack deletion. A pack stays
// removable even when some snapshots could not be deleted.
type CascadeResult struct {
	TotalSnapshots   int
	DeletedSnapshots int
}

type Machine struct {
	store PackStore
	snaps Snapshotter
	log   logging.Logger
}

func New(store PackStore, snaps Snapshotter, log logging.Logger) *Machine {
	return &Machine{store: store, snaps: snaps, log: log}
}

// TransitionState moves a pack to target. Illegal moves fail with
// common.ErrInvalidTransition and change nothing. The status change is the
// primary effect: snapshot side effects that fail are logged and do not undo
// the transition.
func (m *Machine) TransitionState(ctx context.Context, entryPackID string, target models.PackStatus, tc TransitionContext) (*models.EntryPack, error) {
	pack, err := m.store.GetEntryPack(ctx, entryPackID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrEntryPackNotFound, entryPackID)
	}

	if !canTransition(pack.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, pack.Status, target)
	}

	if target == models.PackSubmitted && tc.Submission == nil {
		return nil, fmt.Errorf("%w: submitted requires a submission record", common.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	from := pack.Status
	pack.Status = target
	switch target {
	case models.PackSubmitted:
		sub := *tc.Submission
		if sub.SubmittedAt.IsZero() {
			sub.SubmittedAt = now
		}
		pack.Submission = &sub
		// history only grows, earlier attempts are superseded, never removed
		pack.Attempts = append(pack.Attempts, models.SubmissionAttempt{
			AttemptedAt: sub.SubmittedAt,
			Method:      sub.Method,
			Success:     true,
		})
	case models.PackArchived:
		pack.ArchivedAt = &now
	}

	// status and display summary are persisted together in one row write
	if _, err := m.store.SaveEntryPack(ctx, pack.UserID, pack); err != nil {
		return nil, err
	}
	m.store.RecordTransition(ctx, pack.UserID, pack.ID, from, target)

	m.runSnapshotSideEffect(ctx, pack, target, tc)
	return pack, nil
}

// runSnapshotSideEffect captures the snapshot a transition calls for.
// Failures are operator-visible through the log only.
func (m *Machine) runSnapshotSideEffect(ctx context.Context, pack *models.EntryPack, target models.PackStatus, tc TransitionContext) {
	var (
		trigger models.SnapshotTrigger
		reason  string
	)

	switch target {
	case models.PackSubmitted:
		trigger = models.SnapshotAutomatic
		reason = fmt.Sprintf("submitted via %s, card %s", tc.Submission.Method, tc.Submission.CardNumber)
	case models.PackCompleted:
		trigger = models.SnapshotManual
		reason = fmt.Sprintf("completed by %s at %s via %s", tc.CompletedBy, tc.CompletedAt, tc.CompletedVia)
	case models.PackExpired:
		trigger = models.SnapshotAutomatic
		reason = tc.ExpiryReason
		if reason == "" {
			reason = "auto-expired"
		}
	case models.PackArchived:
		// idempotent safeguard: archive only snapshots a pack that has none
		n, err := m.snaps.CountByPack(ctx, pack.ID)
		if err != nil {
			m.log.Error(ctx, "failed to count snapshots before archival", "entry_pack_id", pack.ID, "error", err)
			return
		}
		if n > 0 {
			return
		}
		trigger = models.SnapshotAutomatic
		reason = "archived without prior snapshot"
	default:
		return
	}

	if _, err := m.snaps.Create(ctx, pack.ID, target, trigger, reason); err != nil {
		m.log.Error(ctx, "snapshot side effect failed, transition preserved",
			"entry_pack_id", pack.ID, "target", target, "error", err)
	}
}

// DeleteEntryPack removes a pack and cascades to its snapshots. Snapshot
// deletions that fail are counted, not fatal.
func (m *Machine) DeleteEntryPack(ctx context.Context, entryPackID string) (CascadeResult, error) {
	res := CascadeResult{}

	pack, err := m.store.GetEntryPack(ctx, entryPackID)
	if err != nil {
		return res, err
	}
	if pack == nil {
		return res, fmt.Errorf("%w: %s", common.ErrEntryPackNotFound, entryPackID)
	}

	snaps, err := m.snaps.ListByPack(ctx, entryPackID)
	if err != nil {
		return res, err
	}
	res.TotalSnapshots = len(snaps)

	for _, s := range snaps {
		if err := m.snaps.Delete(ctx, s.ID); err != nil {
			m.log.Warn(ctx, "failed to delete snapshot during pack cascade",
				"snapshot_id", s.ID, "entry_pack_id", entryPackID, "error", err)
			continue
		}
		res.DeletedSnapshots++
	}

	if err := m.store.DeleteEntryPackRow(ctx, pack.UserID, entryPackID); err != nil {
		return res, err
	}
	return res, nil
}
