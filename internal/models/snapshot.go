package models

import "time"

// PhotoCopyStatus is the per-photo outcome recorded in a snapshot manifest.
type PhotoCopyStatus string

const (
	PhotoCopySuccess PhotoCopyStatus = "success"
	PhotoCopyMissing PhotoCopyStatus = "missing"
	PhotoCopyFailed  PhotoCopyStatus = "failed"
)

// PhotoManifestEntry records what happened to one fund item's photo during
// snapshot capture. The manifest has exactly one entry per fund item that had
// a photo reference at capture time, regardless of outcome.
type PhotoManifestEntry struct {
	FundItemID   string          `json:"fundItemId"`
	OriginalPath string          `json:"originalPath"`
	SnapshotPath string          `json:"snapshotPath,omitempty"`
	SizeBytes    int64           `json:"sizeBytes,omitempty"`
	Status       PhotoCopyStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
}

// SnapshotTrigger records whether a snapshot was taken automatically by a
// lifecycle transition or manually by the user.
type SnapshotTrigger string

const (
	SnapshotAutomatic SnapshotTrigger = "automatic"
	SnapshotManual    SnapshotTrigger = "manual"
)

// SnapshotData is the frozen point-in-time copy of an entry pack's records.
type SnapshotData struct {
	Passport     *Passport           `json:"passport,omitempty"`
	PersonalInfo *PersonalInfo       `json:"personalInfo,omitempty"`
	FundItems    []FundItem          `json:"fundItems,omitempty"`
	TravelInfo   *TravelInfo         `json:"travelInfo,omitempty"`
	Submission   *SubmissionRecord   `json:"submission,omitempty"`
	Attempts     []SubmissionAttempt `json:"attempts,omitempty"`
}

// EncryptionInfo describes how a snapshot's or export's sensitive fields were
// protected, without containing key material.
type EncryptionInfo struct {
	Algorithm  string   `json:"algorithm"`
	KeyScheme  string   `json:"keyScheme"`
	FieldTypes []string `json:"fieldTypes,omitempty"`
}

// EntryPackSnapshot is an immutable point-in-time capture of an entry pack.
// It is never updated after creation, only created or deleted as a whole.
type EntryPackSnapshot struct {
	ID          string
	EntryPackID string
	UserID      string
	Status      PackStatus
	Trigger     SnapshotTrigger
	Reason      string
	Data        SnapshotData
	Manifest    []PhotoManifestEntry
	Encryption  EncryptionInfo
	CreatedAt   time.Time
}
