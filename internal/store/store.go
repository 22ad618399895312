// Package store is the record store of the data core: it owns the local
// database, schema migrations, field-level encryption of sensitive columns
// and the audit log. All reads and writes of Passport, PersonalInfo,
// FundItem, TravelInfo, EntryInfo and EntryPack rows go through it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/cryptox"
	"github.com/mkazakovs/entrypack/internal/dbx"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/migrations"
	"github.com/mkazakovs/entrypack/internal/models"
	"github.com/mkazakovs/entrypack/internal/repositories/audit"
	"github.com/mkazakovs/entrypack/internal/repositories/backups"
	"github.com/mkazakovs/entrypack/internal/repositories/entryinfo"
	"github.com/mkazakovs/entrypack/internal/repositories/entrypacks"
	"github.com/mkazakovs/entrypack/internal/repositories/funditems"
	"github.com/mkazakovs/entrypack/internal/repositories/passports"
	"github.com/mkazakovs/entrypack/internal/repositories/personalinfo"
	"github.com/mkazakovs/entrypack/internal/repositories/snapshots"
	"github.com/mkazakovs/entrypack/internal/repositories/travelinfo"
)

// Field types used to derive per-field encryption subkeys.
const (
	FieldPassportNumber = "passport_number"
	FieldFullName       = "full_name"
	FieldDateOfBirth    = "date_of_birth"
	FieldNationality    = "nationality"
	FieldHomeAddress    = "home_address"
)

// SensitiveFieldTypes lists every field type the store encrypts at rest.
var SensitiveFieldTypes = []string{
	FieldPassportNumber, FieldFullName, FieldDateOfBirth, FieldNationality, FieldHomeAddress,
}

type Store struct {
	db     *sql.DB
	cipher *cryptox.FieldCipher
	log    logging.Logger

	mu          sync.Mutex
	initialized bool
}

// New returns an uninitialized Store. Initialize must be called before any
// other operation.
func New(db *sql.DB, cipher *cryptox.FieldCipher, log logging.Logger) *Store {
	return &Store{db: db, cipher: cipher, log: log}
}

// DB exposes the underlying handle for collaborating services that share the
// store's transaction queue (snapshot, lifecycle, backup).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Initialize prepares the schema. It is a no-op when already initialized and
// safe to call from multiple UI flows. Migration steps that fail after the
// baseline exists are logged and skipped; a missing baseline is fatal.
func (s *Store) Initialize(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	if err := migrations.Run(ctx, s.db); err != nil {
		// best-effort: if the core tables are present we can keep going on
		// the existing schema, schema drift must not brick the app
		if s.baselineExists(ctx) {
			s.log.Warn(ctx, "schema migration failed, continuing on existing schema", "error", err)
		} else {
			return fmt.Errorf("%w: %v", common.ErrInitialization, err)
		}
	}

	s.initialized = true
	s.log.Info(ctx, "record store initialized", "user_id", userID)
	return nil
}

func (s *Store) baselineExists(ctx context.Context) bool {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='entry_packs'`).Scan(&n)
	return err == nil && n > 0
}

// ready guards every operation behind Initialize.
func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return common.ErrInitialization
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, common.ErrStorage, err)
}

// Repositories bound to a handle (the live DB or a transaction).
func (s *Store) passports(h dbx.DBTX) passports.Repository { return passports.NewSQLiteRepository(h) }
func (s *Store) personal(h dbx.DBTX) personalinfo.Repository {
	return personalinfo.NewSQLiteRepository(h)
}
func (s *Store) funds(h dbx.DBTX) funditems.Repository      { return funditems.NewSQLiteRepository(h) }
func (s *Store) travel(h dbx.DBTX) travelinfo.Repository    { return travelinfo.NewSQLiteRepository(h) }
func (s *Store) entryInfos(h dbx.DBTX) entryinfo.Repository { return entryinfo.NewSQLiteRepository(h) }
func (s *Store) packs(h dbx.DBTX) entrypacks.Repository     { return entrypacks.NewSQLiteRepository(h) }
func (s *Store) snapshots(h dbx.DBTX) snapshots.Repository  { return snapshots.NewSQLiteRepository(h) }
func (s *Store) audits(h dbx.DBTX) audit.Repository         { return audit.NewSQLiteRepository(h) }
func (s *Store) backups(h dbx.DBTX) backups.Repository      { return backups.NewSQLiteRepository(h) }

// appendAudit writes one audit row after the primary mutation committed.
// A failed audit write is reported in the log, never to the caller.
func (s *Store) appendAudit(ctx context.Context, e models.AuditEvent) {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()
	e.Immutable = true
	e.Version = 1
	if e.SystemInfo == nil {
		e.SystemInfo = map[string]string{"os": runtime.GOOS}
	}
	if err := s.audits(s.db).Append(ctx, &e); err != nil {
		s.log.Error(ctx, "failed to append audit event", "type", e.Type, "error", err)
	}
}

// ListAuditEvents returns the newest audit events for a user.
func (s *Store) ListAuditEvents(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	events, err := s.audits(s.db).ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storageErr("list audit events", err)
	}
	return events, nil
}
