package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/dbx"
	"github.com/mkazakovs/entrypack/internal/models"
)

// EntityKind names one entity type for batch loads.
type EntityKind string

const (
	KindPassport     EntityKind = "passport"
	KindPersonalInfo EntityKind = "personal_info"
	KindFundItems    EntityKind = "fund_items"
	KindTravelInfo   EntityKind = "travel_info"
	KindEntryInfo    EntityKind = "entry_info"
	KindEntryPacks   EntityKind = "entry_packs"
)

// BatchOp is one write in a BatchSave. The set of variants is closed: each
// entity type has exactly one op type, so a new entity means a new variant
// and a new case, checked at compile time.
type BatchOp interface {
	isBatchOp()
}

// The concrete op variants.
type (
	SavePassportOp     struct{ Data *models.Passport }
	SavePersonalInfoOp struct{ Data *models.PersonalInfo }
	SaveFundItemOp     struct{ Data *models.FundItem }
	SaveTravelInfoOp   struct{ Data *models.TravelInfo }
	SaveEntryInfoOp    struct{ Data *models.EntryInfo }
	SaveEntryPackOp    struct{ Data *models.EntryPack }
)

func (SavePassportOp) isBatchOp()     {}
func (SavePersonalInfoOp) isBatchOp() {}
func (SaveFundItemOp) isBatchOp()     {}
func (SaveTravelInfoOp) isBatchOp()   {}
func (SaveEntryInfoOp) isBatchOp()    {}
func (SaveEntryPackOp) isBatchOp()    {}

// BatchResult is the aggregate returned by BatchLoad.
type BatchResult struct {
	Passport     *models.Passport
	PersonalInfo *models.PersonalInfo
	FundItems    []models.FundItem
	TravelInfo   []models.TravelInfo
	EntryInfos   []models.EntryInfo
	EntryPacks   []models.EntryPack
}

// BatchSave performs multiple entity writes in one transaction. All
// encryption is computed before the transaction begins so the transaction
// itself stays short-lived. A failure anywhere rolls back every write.
func (s *Store) BatchSave(ctx context.Context, userID string, ops []BatchOp) error {
	if err := s.ready(); err != nil {
		return err
	}
	now := time.Now().UTC()

	// phase 1: assign ids, stamp times, pre-compute ciphertext
	prepared := make([]BatchOp, 0, len(ops))
	for _, op := range ops {
		switch v := op.(type) {
		case SavePassportOp:
			p := *v.Data
			stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt, now)
			p.UserID = userID
			enc, err := s.encryptPassport(p)
			if err != nil {
				return err
			}
			v.Data.ID = p.ID
			prepared = append(prepared, SavePassportOp{Data: &enc})
		case SavePersonalInfoOp:
			pi := *v.Data
			stamp(&pi.ID, &pi.CreatedAt, &pi.UpdatedAt, now)
			pi.UserID = userID
			enc, err := s.encryptPersonalInfo(pi)
			if err != nil {
				return err
			}
			v.Data.ID = pi.ID
			prepared = append(prepared, SavePersonalInfoOp{Data: &enc})
		case SaveFundItemOp:
			f := *v.Data
			stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt, now)
			f.UserID = userID
			if f.Type == "" {
				f.Type = models.FundOther
			}
			v.Data.ID = f.ID
			prepared = append(prepared, SaveFundItemOp{Data: &f})
		case SaveTravelInfoOp:
			ti := *v.Data
			stamp(&ti.ID, &ti.CreatedAt, &ti.UpdatedAt, now)
			ti.UserID = userID
			v.Data.ID = ti.ID
			prepared = append(prepared, SaveTravelInfoOp{Data: &ti})
		case SaveEntryInfoOp:
			ei := *v.Data
			if ei.ID == "" {
				ei.ID = uuid.NewString()
			}
			ei.UserID = userID
			ei.UpdatedAt = now
			v.Data.ID = ei.ID
			prepared = append(prepared, SaveEntryInfoOp{Data: &ei})
		case SaveEntryPackOp:
			p := *v.Data
			stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt, now)
			p.UserID = userID
			if p.Status == "" {
				p.Status = models.PackInProgress
			}
			v.Data.ID = p.ID
			prepared = append(prepared, SaveEntryPackOp{Data: &p})
		default:
			return fmt.Errorf("unknown batch op %T", op)
		}
	}

	// phase 2: short transaction, plain writes only
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, op := range prepared {
			var err error
			switch v := op.(type) {
			case SavePassportOp:
				err = s.passports(tx).Upsert(ctx, v.Data)
			case SavePersonalInfoOp:
				err = s.personal(tx).Upsert(ctx, v.Data)
			case SaveFundItemOp:
				err = s.funds(tx).Upsert(ctx, v.Data)
			case SaveTravelInfoOp:
				err = s.travel(tx).Upsert(ctx, v.Data)
			case SaveEntryInfoOp:
				err = s.entryInfos(tx).Upsert(ctx, v.Data)
			case SaveEntryPackOp:
				err = s.packs(tx).Upsert(ctx, v.Data)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("batch save", err)
	}

	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "batch", "count": fmt.Sprint(len(ops))},
	})
	return nil
}

// BatchLoad reads the requested entity kinds in one transaction and decrypts
// after the transaction has ended.
func (s *Store) BatchLoad(ctx context.Context, userID string, kinds []EntityKind) (*BatchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	res := &BatchResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kind := range kinds {
			var err error
			switch kind {
			case KindPassport:
				res.Passport, err = s.passports(tx).GetCurrentByUser(ctx, userID)
			case KindPersonalInfo:
				res.PersonalInfo, err = s.personal(tx).GetByUser(ctx, userID)
			case KindFundItems:
				res.FundItems, err = s.funds(tx).ListByUser(ctx, userID)
			case KindTravelInfo:
				res.TravelInfo, err = s.travel(tx).ListByUser(ctx, userID)
			case KindEntryInfo:
				res.EntryInfos, err = s.entryInfos(tx).ListByUser(ctx, userID)
			case KindEntryPacks:
				res.EntryPacks, err = s.packs(tx).ListByUser(ctx, userID)
			default:
				err = fmt.Errorf("unknown entity kind %q", kind)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("batch load", err)
	}

	// decryption happens outside the transaction
	if res.Passport != nil {
		dec, err := s.decryptPassport(*res.Passport)
		if err != nil {
			return nil, err
		}
		res.Passport = &dec
	}
	if res.PersonalInfo != nil {
		dec, err := s.decryptPersonalInfo(*res.PersonalInfo)
		if err != nil {
			return nil, err
		}
		res.PersonalInfo = &dec
	}
	return res, nil
}

func stamp(id *string, createdAt, updatedAt *time.Time, now time.Time) {
	if *id == "" {
		*id = uuid.NewString()
		*createdAt = now
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
