package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/cryptox"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := New(db, cryptox.NewFieldCipher(cryptox.RandBytes(32)), log)
	require.NoError(t, s.Initialize(context.Background(), "u1"))
	return s
}

func TestOperationsFailBeforeInitialize(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := New(db, cryptox.NewFieldCipher(cryptox.RandBytes(32)), log)

	_, err = s.GetPassport(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrInitialization)
}

func TestInitialize_Idempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Initialize(context.Background(), "u1"))
}

func TestSavePassport_PartialSaveRoundTrips(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// только номер и имя
	id, err := s.SavePassport(ctx, "u1", &models.Passport{
		PassportNumber: "AB1234567",
		FullName:       "Jane Roe",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetPassport(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AB1234567", got.PassportNumber)
	assert.Equal(t, "Jane Roe", got.FullName)
	assert.Empty(t, got.DateOfBirth)
	assert.Empty(t, got.Nationality)
	assert.Empty(t, got.ExpiryDate)
}

func TestSavePassport_SensitiveFieldsEncryptedAtRest(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SavePassport(ctx, "u1", &models.Passport{
		PassportNumber: "AB1234567",
		FullName:       "Jane Roe",
		Gender:         "F",
	})
	require.NoError(t, err)

	var number, name, gender string
	require.NoError(t, s.db.QueryRow(
		`SELECT passport_number, full_name, gender FROM passports`).Scan(&number, &name, &gender))
	assert.NotEqual(t, "AB1234567", number)
	assert.NotEqual(t, "Jane Roe", name)
	// gender is not a sensitive field
	assert.Equal(t, "F", gender)
}

func TestGetPassport_ReturnsNilNotErrorWhenAbsent(t *testing.T) {
	s := newStore(t)

	got, err := s.GetPassport(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSavePersonalInfo_UpsertsByUser(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id1, err := s.SavePersonalInfo(ctx, "u1", &models.PersonalInfo{Email: "a@b.c", HomeAddress: "1 Main St"})
	require.NoError(t, err)

	// a second save without id still lands on the same logical row
	_, err = s.SavePersonalInfo(ctx, "u1", &models.PersonalInfo{ID: id1, Email: "x@y.z", HomeAddress: "2 Side St"})
	require.NoError(t, err)

	got, err := s.GetPersonalInfo(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "x@y.z", got.Email)
	assert.Equal(t, "2 Side St", got.HomeAddress)
}

func TestFundItems_IndependentLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id1, err := s.SaveFundItem(ctx, "u1", &models.FundItem{Type: models.FundCash, Amount: 500, Currency: "EUR"})
	require.NoError(t, err)
	id2, err := s.SaveFundItem(ctx, "u1", &models.FundItem{Type: models.FundBankCard, Amount: 1000, Currency: "USD"})
	require.NoError(t, err)

	items, err := s.GetFundItems(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, s.DeleteFundItem(ctx, "u1", id1))

	items, err = s.GetFundItems(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id2, items[0].ID)
}

func TestDeleteAllUserData_EverythingGone(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SavePassport(ctx, "u1", &models.Passport{PassportNumber: "AB1"})
	require.NoError(t, err)
	_, err = s.SavePersonalInfo(ctx, "u1", &models.PersonalInfo{Email: "a@b.c"})
	require.NoError(t, err)
	_, err = s.SaveFundItem(ctx, "u1", &models.FundItem{Amount: 1})
	require.NoError(t, err)
	_, err = s.SaveTravelInfo(ctx, "u1", &models.TravelInfo{Destination: "hk"})
	require.NoError(t, err)
	eiID, err := s.SaveEntryInfo(ctx, "u1", &models.EntryInfo{DestinationID: "hk"})
	require.NoError(t, err)
	_, err = s.SaveEntryPack(ctx, "u1", &models.EntryPack{EntryInfoID: eiID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllUserData(ctx, "u1"))

	p, err := s.GetPassport(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
	pi, err := s.GetPersonalInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, pi)
	items, err := s.GetFundItems(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
	ti, err := s.GetTravelInfo(ctx, "u1", "hk")
	require.NoError(t, err)
	assert.Nil(t, ti)
	ids, err := s.ListEntryInfoIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	packsList, err := s.ListEntryPacks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, packsList)
	events, err := s.ListAuditEvents(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBatchSave_AllOrNothing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// a snapshot insert with a duplicated entry-info id is fine (upsert), so
	// force a failure with an invalid op instead
	err := s.BatchSave(ctx, "u1", []BatchOp{
		SavePassportOp{Data: &models.Passport{PassportNumber: "AB1"}},
		nil,
	})
	require.Error(t, err)

	got, err := s.GetPassport(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got, "no partial writes after failed batch")
}

func TestBatchSaveAndLoad_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.BatchSave(ctx, "u1", []BatchOp{
		SavePassportOp{Data: &models.Passport{PassportNumber: "AB1", FullName: "Jane"}},
		SavePersonalInfoOp{Data: &models.PersonalInfo{Email: "a@b.c", HomeAddress: "1 Main St"}},
		SaveFundItemOp{Data: &models.FundItem{Type: models.FundCash, Amount: 300}},
		SaveTravelInfoOp{Data: &models.TravelInfo{Destination: "hk", Purpose: "tourism"}},
	})
	require.NoError(t, err)

	res, err := s.BatchLoad(ctx, "u1", []EntityKind{KindPassport, KindPersonalInfo, KindFundItems, KindTravelInfo})
	require.NoError(t, err)
	require.NotNil(t, res.Passport)
	assert.Equal(t, "AB1", res.Passport.PassportNumber)
	require.NotNil(t, res.PersonalInfo)
	assert.Equal(t, "1 Main St", res.PersonalInfo.HomeAddress)
	require.Len(t, res.FundItems, 1)
	require.Len(t, res.TravelInfo, 1)
}

func TestMutations_AppendAuditRows(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SavePassport(ctx, "u1", &models.Passport{PassportNumber: "AB1"})
	require.NoError(t, err)
	_, err = s.SaveFundItem(ctx, "u1", &models.FundItem{Amount: 1})
	require.NoError(t, err)

	events, err := s.ListAuditEvents(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.True(t, e.Immutable)
		assert.Equal(t, 1, e.Version)
		assert.Equal(t, models.AuditEntitySaved, e.Type)
	}
}

func TestExportUserData_AggregatesEverything(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SavePassport(ctx, "u1", &models.Passport{PassportNumber: "AB1", FullName: "Jane"})
	require.NoError(t, err)
	_, err = s.SaveFundItem(ctx, "u1", &models.FundItem{Type: models.FundCash, Amount: 10})
	require.NoError(t, err)

	export, err := s.ExportUserData(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, export.Passport)
	assert.Equal(t, "AB1", export.Passport.PassportNumber)
	require.Len(t, export.FundItems, 1)
	assert.NotEmpty(t, export.AuditEvents)
	assert.Equal(t, "AES-256-GCM", export.Encryption.Algorithm)
	assert.ElementsMatch(t, SensitiveFieldTypes, export.Encryption.FieldTypes)
}
