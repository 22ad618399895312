package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/mkazakovs/entrypack/internal/models"
)

// ImportStore is the write surface the store-backed importer needs.
type ImportStore interface {
	GetEntryInfo(ctx context.Context, id string) (*models.EntryInfo, error)
	SaveEntryInfo(ctx context.Context, userID string, ei *models.EntryInfo) (string, error)
	SaveEntryPack(ctx context.Context, userID string, p *models.EntryPack) (string, error)
	SavePassport(ctx context.Context, userID string, p *models.Passport) (string, error)
	SavePersonalInfo(ctx context.Context, userID string, pi *models.PersonalInfo) (string, error)
	SaveFundItem(ctx context.Context, userID string, f *models.FundItem) (string, error)
	SaveTravelInfo(ctx context.Context, userID string, ti *models.TravelInfo) (string, error)
}

// StoreImporter restores archive entries into the record store. The ask
// policy never writes over existing data: conflicting entries are reported
// back for the caller to resolve.
type StoreImporter struct {
	store  ImportStore
	userID string
}

func NewStoreImporter(st ImportStore, userID string) *StoreImporter {
	return &StoreImporter{store: st, userID: userID}
}

func (im *StoreImporter) Import(ctx context.Context, archivePath string, opts RestoreOptions) (*RecoveryResult, error) {
	blob, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var archive Archive
	if err := json.Unmarshal(blob, &archive); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}

	res := &RecoveryResult{}
	for _, entry := range archive.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(opts.SelectedEntryPacks) > 0 && !selected(entry, opts.SelectedEntryPacks) {
			res.SkippedCount++
			continue
		}

		var payload EntryPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, fmt.Errorf("parse entry %s: %w", entry.EntryInfoID, err)
		}

		existing, err := im.store.GetEntryInfo(ctx, payload.EntryInfo.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			switch opts.ConflictResolution {
			case ResolveOverwrite:
				// fall through to the save below
			case ResolveSkip:
				res.SkippedCount++
				continue
			default: // ask
				res.Conflicts = append(res.Conflicts, payload.EntryInfo.ID)
				res.SkippedCount++
				continue
			}
		}

		if opts.DryRun {
			res.RecoveredCount++
			continue
		}
		if err := im.restoreEntry(ctx, &payload); err != nil {
			return nil, err
		}
		res.RecoveredCount++
	}
	return res, nil
}

func (im *StoreImporter) restoreEntry(ctx context.Context, p *EntryPayload) error {
	if p.Passport != nil {
		if _, err := im.store.SavePassport(ctx, im.userID, p.Passport); err != nil {
			return err
		}
	}
	if p.PersonalInfo != nil {
		if _, err := im.store.SavePersonalInfo(ctx, im.userID, p.PersonalInfo); err != nil {
			return err
		}
	}
	for i := range p.FundItems {
		if _, err := im.store.SaveFundItem(ctx, im.userID, &p.FundItems[i]); err != nil {
			return err
		}
	}
	if p.TravelInfo != nil {
		if _, err := im.store.SaveTravelInfo(ctx, im.userID, p.TravelInfo); err != nil {
			return err
		}
	}
	if _, err := im.store.SaveEntryInfo(ctx, im.userID, &p.EntryInfo); err != nil {
		return err
	}
	for i := range p.EntryPacks {
		if _, err := im.store.SaveEntryPack(ctx, im.userID, &p.EntryPacks[i]); err != nil {
			return err
		}
	}
	return nil
}

func selected(entry EntryExport, ids []string) bool {
	return slices.Contains(ids, entry.EntryInfoID)
}
