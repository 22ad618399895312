package models

import "time"

// UserDataExport aggregates every entity belonging to one user. It is the
// payload of the right-to-portability surface and is JSON-serializable.
type UserDataExport struct {
	UserID       string              `json:"userId"`
	ExportedAt   time.Time           `json:"exportedAt"`
	Passport     *Passport           `json:"passport,omitempty"`
	PersonalInfo *PersonalInfo       `json:"personalInfo,omitempty"`
	FundItems    []FundItem          `json:"fundItems,omitempty"`
	TravelInfo   []TravelInfo        `json:"travelInfo,omitempty"`
	EntryInfos   []EntryInfo         `json:"entryInfos,omitempty"`
	EntryPacks   []EntryPack         `json:"entryPacks,omitempty"`
	Snapshots    []EntryPackSnapshot `json:"snapshots,omitempty"`
	AuditEvents  []AuditEvent        `json:"auditEvents,omitempty"`
	Encryption   EncryptionInfo      `json:"encryption"`
}
