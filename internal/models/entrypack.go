package models

import "time"

// PackStatus is the lifecycle state of an entry pack.
type PackStatus string

const (
	PackInProgress PackStatus = "in_progress"
	PackSubmitted  PackStatus = "submitted"
	PackCompleted  PackStatus = "completed"
	PackExpired    PackStatus = "expired"
	PackArchived   PackStatus = "archived"
)

// SubmissionRecord captures the outcome of a submission to the external
// portal collaborator.
type SubmissionRecord struct {
	CardNumber  string    `json:"cardNumber,omitempty"`
	QRCodeURI   string    `json:"qrCodeUri,omitempty"`
	PDFURI      string    `json:"pdfUri,omitempty"`
	Method      string    `json:"method,omitempty"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// SubmissionAttempt is one entry in the append-only attempt history.
// Attempts are never removed, only superseded by later ones.
type SubmissionAttempt struct {
	AttemptedAt time.Time `json:"attemptedAt"`
	Method      string    `json:"method,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// DocumentRef points at a generated or attached document file.
type DocumentRef struct {
	Kind string `json:"kind"`
	URI  string `json:"uri"`
}

// DisplayStatus is the derived, UI-facing summary of a pack.
type DisplayStatus struct {
	Label             string `json:"label"`
	CompletionPercent int    `json:"completionPercent"`
	HasSubmission     bool   `json:"hasSubmission"`
}

// DeriveDisplay computes the UI-facing summary for a pack. Stored completion
// metrics are the single source of truth for the percentage.
func DeriveDisplay(status PackStatus, metrics CompletionMetrics, hasSubmission bool) DisplayStatus {
	labels := map[PackStatus]string{
		PackInProgress: "In progress",
		PackSubmitted:  "Submitted",
		PackCompleted:  "Completed",
		PackExpired:    "Expired",
		PackArchived:   "Archived",
	}
	label, ok := labels[status]
	if !ok {
		label = string(status)
	}
	return DisplayStatus{
		Label:             label,
		CompletionPercent: metrics.TotalPercent(),
		HasSubmission:     hasSubmission,
	}
}

// EntryPack bundles everything about one submission cycle of an entry.
// An entry info may accumulate several packs over repeated trips.
type EntryPack struct {
	ID            string
	EntryInfoID   string
	UserID        string
	DestinationID string
	TripID        string
	Status        PackStatus
	Submission    *SubmissionRecord
	Attempts      []SubmissionAttempt
	Documents     []DocumentRef
	Display       DisplayStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ArchivedAt    *time.Time
}
