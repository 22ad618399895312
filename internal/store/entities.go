package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/models"
)

// encryptPassport returns a copy of p with sensitive columns replaced by
// ciphertext. Called before any transaction so crypto work never holds it.
func (s *Store) encryptPassport(p models.Passport) (models.Passport, error) {
	enc, err := s.cipher.EncryptFieldMap(map[string]string{
		FieldPassportNumber: p.PassportNumber,
		FieldFullName:       p.FullName,
		FieldDateOfBirth:    p.DateOfBirth,
		FieldNationality:    p.Nationality,
	})
	if err != nil {
		return models.Passport{}, err
	}
	p.PassportNumber = enc[FieldPassportNumber]
	p.FullName = enc[FieldFullName]
	p.DateOfBirth = enc[FieldDateOfBirth]
	p.Nationality = enc[FieldNationality]
	return p, nil
}

func (s *Store) decryptPassport(p models.Passport) (models.Passport, error) {
	dec, err := s.cipher.DecryptFieldMap(map[string]string{
		FieldPassportNumber: p.PassportNumber,
		FieldFullName:       p.FullName,
		FieldDateOfBirth:    p.DateOfBirth,
		FieldNationality:    p.Nationality,
	})
	if err != nil {
		return models.Passport{}, err
	}
	p.PassportNumber = dec[FieldPassportNumber]
	p.FullName = dec[FieldFullName]
	p.DateOfBirth = dec[FieldDateOfBirth]
	p.Nationality = dec[FieldNationality]
	return p, nil
}

// SavePassport upserts a passport by id, generating one when absent.
// Returns the persisted id.
func (s *Store) SavePassport(ctx context.Context, userID string, p *models.Passport) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UserID = userID
	p.UpdatedAt = now

	enc, err := s.encryptPassport(*p)
	if err != nil {
		return "", err
	}
	if err := s.passports(s.db).Upsert(ctx, &enc); err != nil {
		return "", storageErr("save passport", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "passport", "id": p.ID},
	})
	return p.ID, nil
}

// GetPassport returns the user's current passport, reconciling duplicate rows
// from repeated partial saves to the most recently updated one. Returns
// (nil, nil) when the user has no passport.
func (s *Store) GetPassport(ctx context.Context, userID string) (*models.Passport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := s.passports(s.db).GetCurrentByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("get passport", err)
	}
	if p == nil {
		return nil, nil
	}
	dec, err := s.decryptPassport(*p)
	if err != nil {
		return nil, err
	}
	return &dec, nil
}

func (s *Store) encryptPersonalInfo(pi models.PersonalInfo) (models.PersonalInfo, error) {
	enc, err := s.cipher.EncryptField(FieldHomeAddress, pi.HomeAddress)
	if err != nil {
		return models.PersonalInfo{}, err
	}
	pi.HomeAddress = enc
	return pi, nil
}

func (s *Store) decryptPersonalInfo(pi models.PersonalInfo) (models.PersonalInfo, error) {
	dec, err := s.cipher.DecryptField(FieldHomeAddress, pi.HomeAddress)
	if err != nil {
		return models.PersonalInfo{}, err
	}
	pi.HomeAddress = dec
	return pi, nil
}

// SavePersonalInfo upserts the user's single personal-info row.
func (s *Store) SavePersonalInfo(ctx context.Context, userID string, pi *models.PersonalInfo) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if pi.ID == "" {
		pi.ID = uuid.NewString()
		pi.CreatedAt = now
	}
	if pi.CreatedAt.IsZero() {
		pi.CreatedAt = now
	}
	pi.UserID = userID
	pi.UpdatedAt = now

	enc, err := s.encryptPersonalInfo(*pi)
	if err != nil {
		return "", err
	}
	if err := s.personal(s.db).Upsert(ctx, &enc); err != nil {
		return "", storageErr("save personal info", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "personal_info", "id": pi.ID},
	})
	return pi.ID, nil
}

func (s *Store) GetPersonalInfo(ctx context.Context, userID string) (*models.PersonalInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	pi, err := s.personal(s.db).GetByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("get personal info", err)
	}
	if pi == nil {
		return nil, nil
	}
	dec, err := s.decryptPersonalInfo(*pi)
	if err != nil {
		return nil, err
	}
	return &dec, nil
}

// SaveFundItem upserts one fund item.
func (s *Store) SaveFundItem(ctx context.Context, userID string, f *models.FundItem) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if f.ID == "" {
		f.ID = uuid.NewString()
		f.CreatedAt = now
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.Type == "" {
		f.Type = models.FundOther
	}
	f.UserID = userID
	f.UpdatedAt = now

	if err := s.funds(s.db).Upsert(ctx, f); err != nil {
		return "", storageErr("save fund item", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "fund_item", "id": f.ID},
	})
	return f.ID, nil
}

func (s *Store) GetFundItem(ctx context.Context, id string) (*models.FundItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	f, err := s.funds(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get fund item", err)
	}
	return f, nil
}

func (s *Store) GetFundItems(ctx context.Context, userID string) ([]models.FundItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	items, err := s.funds(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("get fund items", err)
	}
	return items, nil
}

func (s *Store) DeleteFundItem(ctx context.Context, userID, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.funds(s.db).DeleteByID(ctx, id); err != nil {
		return storageErr("delete fund item", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntityDeleted, UserID: userID,
		Metadata: map[string]string{"entity": "fund_item", "id": id},
	})
	return nil
}

// SaveTravelInfo upserts the active travel info for (user, destination).
func (s *Store) SaveTravelInfo(ctx context.Context, userID string, ti *models.TravelInfo) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if ti.ID == "" {
		ti.ID = uuid.NewString()
		ti.CreatedAt = now
	}
	if ti.CreatedAt.IsZero() {
		ti.CreatedAt = now
	}
	ti.UserID = userID
	ti.UpdatedAt = now

	if err := s.travel(s.db).Upsert(ctx, ti); err != nil {
		return "", storageErr("save travel info", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "travel_info", "id": ti.ID},
	})
	return ti.ID, nil
}

func (s *Store) GetTravelInfo(ctx context.Context, userID, destination string) (*models.TravelInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ti, err := s.travel(s.db).GetByUserDestination(ctx, userID, destination)
	if err != nil {
		return nil, storageErr("get travel info", err)
	}
	return ti, nil
}

// SaveEntryInfo upserts an entry info record.
func (s *Store) SaveEntryInfo(ctx context.Context, userID string, ei *models.EntryInfo) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if ei.ID == "" {
		ei.ID = uuid.NewString()
	}
	ei.UserID = userID
	ei.UpdatedAt = time.Now().UTC()

	if err := s.entryInfos(s.db).Upsert(ctx, ei); err != nil {
		return "", storageErr("save entry info", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID,
		Metadata: map[string]string{"entity": "entry_info", "id": ei.ID},
	})
	return ei.ID, nil
}

func (s *Store) GetEntryInfo(ctx context.Context, id string) (*models.EntryInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ei, err := s.entryInfos(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get entry info", err)
	}
	return ei, nil
}

func (s *Store) ListEntryInfoIDs(ctx context.Context, userID string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ids, err := s.entryInfos(s.db).ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list entry info ids", err)
	}
	return ids, nil
}

// SaveEntryPack upserts an entry pack. The display summary is rederived from
// the linked entry info's stored metrics on every write.
func (s *Store) SaveEntryPack(ctx context.Context, userID string, p *models.EntryPack) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Status == "" {
		p.Status = models.PackInProgress
	}
	p.UserID = userID
	p.UpdatedAt = now

	var metrics models.CompletionMetrics
	if ei, err := s.entryInfos(s.db).GetByID(ctx, p.EntryInfoID); err == nil && ei != nil {
		metrics = ei.Metrics
	}
	p.Display = models.DeriveDisplay(p.Status, metrics, p.Submission != nil)

	if err := s.packs(s.db).Upsert(ctx, p); err != nil {
		return "", storageErr("save entry pack", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntitySaved, UserID: userID, EntryPackID: p.ID,
		Metadata: map[string]string{"entity": "entry_pack", "id": p.ID},
	})
	return p.ID, nil
}

func (s *Store) GetEntryPack(ctx context.Context, id string) (*models.EntryPack, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := s.packs(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get entry pack", err)
	}
	return p, nil
}

// RecordTransition appends a pack-transition audit event. Audit rows are
// written after the primary mutation, so failures only surface in the log.
func (s *Store) RecordTransition(ctx context.Context, userID, packID string, from, to models.PackStatus) {
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditPackTransition, UserID: userID, EntryPackID: packID,
		Metadata: map[string]string{"from": string(from), "to": string(to)},
	})
}

// DeleteEntryPackRow removes a single pack row. Snapshot cascade lives in the
// lifecycle machine, which calls this after handling the snapshots.
func (s *Store) DeleteEntryPackRow(ctx context.Context, userID, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.packs(s.db).DeleteByID(ctx, id); err != nil {
		return storageErr("delete entry pack", err)
	}
	s.appendAudit(ctx, models.AuditEvent{
		Type: models.AuditEntityDeleted, UserID: userID, EntryPackID: id,
		Metadata: map[string]string{"entity": "entry_pack", "id": id},
	})
	return nil
}

func (s *Store) ListEntryPacks(ctx context.Context, userID string) ([]models.EntryPack, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.packs(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list entry packs", err)
	}
	return list, nil
}
