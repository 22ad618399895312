package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mkazakovs/entrypack/internal/models"
)

// ExportStore is the read surface the store-backed exporter needs.
type ExportStore interface {
	GetEntryInfo(ctx context.Context, id string) (*models.EntryInfo, error)
	GetPassport(ctx context.Context, userID string) (*models.Passport, error)
	GetPersonalInfo(ctx context.Context, userID string) (*models.PersonalInfo, error)
	GetFundItems(ctx context.Context, userID string) ([]models.FundItem, error)
	GetTravelInfo(ctx context.Context, userID, destination string) (*models.TravelInfo, error)
	ListEntryPacks(ctx context.Context, userID string) ([]models.EntryPack, error)
}

// EntryPayload is the decrypted, self-contained record bundle of one entry
// info inside an archive.
type EntryPayload struct {
	EntryInfo    models.EntryInfo     `json:"entryInfo"`
	EntryPacks   []models.EntryPack   `json:"entryPacks,omitempty"`
	Passport     *models.Passport     `json:"passport,omitempty"`
	PersonalInfo *models.PersonalInfo `json:"personalInfo,omitempty"`
	FundItems    []models.FundItem    `json:"fundItems,omitempty"`
	TravelInfo   *models.TravelInfo   `json:"travelInfo,omitempty"`
}

// StoreExporter builds archive entries straight from the record store.
type StoreExporter struct {
	store  ExportStore
	userID string
}

func NewStoreExporter(st ExportStore, userID string) *StoreExporter {
	return &StoreExporter{store: st, userID: userID}
}

func (e *StoreExporter) ExportEntryInfo(ctx context.Context, entryInfoID string, includePhotos bool) (*EntryExport, error) {
	info, err := e.store.GetEntryInfo(ctx, entryInfoID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("entry info %s does not exist", entryInfoID)
	}

	payload := EntryPayload{EntryInfo: *info}

	if payload.Passport, err = e.store.GetPassport(ctx, e.userID); err != nil {
		return nil, err
	}
	if payload.PersonalInfo, err = e.store.GetPersonalInfo(ctx, e.userID); err != nil {
		return nil, err
	}
	if payload.FundItems, err = e.store.GetFundItems(ctx, e.userID); err != nil {
		return nil, err
	}
	if info.DestinationID != "" {
		if payload.TravelInfo, err = e.store.GetTravelInfo(ctx, e.userID, info.DestinationID); err != nil {
			return nil, err
		}
	}

	packs, err := e.store.ListEntryPacks(ctx, e.userID)
	if err != nil {
		return nil, err
	}
	for _, p := range packs {
		if p.EntryInfoID == entryInfoID {
			payload.EntryPacks = append(payload.EntryPacks, p)
		}
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal entry payload: %w", err)
	}

	out := &EntryExport{EntryInfoID: entryInfoID, Payload: blob}
	if includePhotos {
		for _, f := range payload.FundItems {
			if f.PhotoURI != "" {
				out.PhotoPaths = append(out.PhotoPaths, f.PhotoURI)
			}
		}
	}
	return out, nil
}
