package models

import "time"

// BackupType distinguishes how a backup was produced.
type BackupType string

const (
	BackupManual    BackupType = "manual"
	BackupAutomatic BackupType = "automatic"
	BackupCloud     BackupType = "cloud"
)

// CloudSyncStatus tracks a cloud backup's upload state.
type CloudSyncStatus string

const (
	SyncPending CloudSyncStatus = "pending"
	SyncSynced  CloudSyncStatus = "synced"
	SyncFailed  CloudSyncStatus = "failed"
)

// BackupMetadata is the sidecar record describing one local backup artifact.
// FileSize must match the artifact on disk or the backup is flagged corrupted.
type BackupMetadata struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"createdAt"`
	Type             BackupType `json:"type"`
	EntryPackCount   int        `json:"entryPackCount"`
	IncludePhotos    bool       `json:"includePhotos"`
	AppVersion       string     `json:"appVersion"`
	DeviceInfo       string     `json:"deviceInfo"`
	FilePath         string     `json:"filePath"`
	FileSize         int64      `json:"fileSize"`
	Encrypted        bool       `json:"encrypted"`
	EncryptionMethod string     `json:"encryptionMethod,omitempty"`
}

// CloudBackupMetadata extends BackupMetadata with provider routing state.
type CloudBackupMetadata struct {
	BackupMetadata
	Provider   string          `json:"provider"`
	SyncStatus CloudSyncStatus `json:"syncStatus"`
	SyncError  string          `json:"syncError,omitempty"`
	SyncedAt   *time.Time      `json:"syncedAt,omitempty"`
}
