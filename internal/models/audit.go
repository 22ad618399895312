package models

import "time"

// AuditEventType enumerates the recorded mutation kinds.
type AuditEventType string

const (
	AuditEntitySaved     AuditEventType = "entity_saved"
	AuditEntityDeleted   AuditEventType = "entity_deleted"
	AuditUserDataErased  AuditEventType = "user_data_erased"
	AuditPackTransition  AuditEventType = "pack_transition"
	AuditSnapshotCreated AuditEventType = "snapshot_created"
	AuditSnapshotDeleted AuditEventType = "snapshot_deleted"
	AuditBackupCreated   AuditEventType = "backup_created"
	AuditBackupRestored  AuditEventType = "backup_restored"
)

// AuditEvent is an append-only record of one mutation. Events are only ever
// deleted as part of a GDPR erasure of the owning user's whole dataset.
type AuditEvent struct {
	ID          string
	Type        AuditEventType
	Timestamp   time.Time
	UserID      string
	EntryPackID string
	SnapshotID  string
	Metadata    map[string]string
	SystemInfo  map[string]string
	Immutable   bool
	Version     int
}
