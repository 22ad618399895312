package store

import (
	"context"
	"time"

	"github.com/mkazakovs/entrypack/internal/dbx"
	"github.com/mkazakovs/entrypack/internal/models"
)

// DeleteAllUserData removes every row for the user across every entity table,
// audit log included, in one transaction. Either everything goes or nothing
// does — this is the right-to-erasure surface and must not partially succeed.
func (s *Store) DeleteAllUserData(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.passports(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.personal(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.funds(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.travel(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.entryInfos(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.packs(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.snapshots(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.audits(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return storageErr("delete all user data", err)
	}

	s.log.Info(ctx, "user data erased", "user_id", userID)
	return nil
}

// ExportUserData aggregates everything the store holds for a user into one
// JSON-serializable object, decrypted, plus a descriptor of how the data was
// protected at rest. This is the right-to-portability surface.
func (s *Store) ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	export := &models.UserDataExport{
		UserID:     userID,
		ExportedAt: time.Now().UTC(),
		Encryption: models.EncryptionInfo{
			Algorithm:  "AES-256-GCM",
			KeyScheme:  "per-field",
			FieldTypes: SensitiveFieldTypes,
		},
	}

	res, err := s.BatchLoad(ctx, userID, []EntityKind{
		KindPassport, KindPersonalInfo, KindFundItems, KindTravelInfo, KindEntryInfo, KindEntryPacks,
	})
	if err != nil {
		return nil, err
	}
	export.Passport = res.Passport
	export.PersonalInfo = res.PersonalInfo
	export.FundItems = res.FundItems
	export.TravelInfo = res.TravelInfo
	export.EntryInfos = res.EntryInfos
	export.EntryPacks = res.EntryPacks

	snaps, err := s.snapshots(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("export snapshots", err)
	}
	export.Snapshots = snaps

	events, err := s.audits(s.db).ListByUser(ctx, userID, 10000)
	if err != nil {
		return nil, storageErr("export audit events", err)
	}
	export.AuditEvents = events

	return export, nil
}
