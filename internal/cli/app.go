// Package cli is the operator shell around the data core: it wires the
// record store, lifecycle machine, snapshot and backup services together and
// exposes them as subcommands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mkazakovs/entrypack/internal/backup"
	"github.com/mkazakovs/entrypack/internal/backup/cloud"
	"github.com/mkazakovs/entrypack/internal/config"
	"github.com/mkazakovs/entrypack/internal/cryptox"
	"github.com/mkazakovs/entrypack/internal/filex"
	"github.com/mkazakovs/entrypack/internal/lifecycle"
	"github.com/mkazakovs/entrypack/internal/logging"
	"github.com/mkazakovs/entrypack/internal/snapshot"
	"github.com/mkazakovs/entrypack/internal/store"

	_ "modernc.org/sqlite"
)

// localUser is the owner of all rows on a single-user install.
const localUser = "local"

type App struct {
	cfg     *config.Config
	log     logging.Logger
	db      *sql.DB
	store   *store.Store
	machine *lifecycle.Machine
	snaps   *snapshot.Service
	backups *backup.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if _, err := filex.EnsureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		return nil, err
	}
	salt, err := loadOrCreateSalt(filepath.Dir(cfg.DatabasePath))
	if err != nil {
		return nil, err
	}
	masterKey := cryptox.DeriveMasterKey(password, salt)

	st := store.New(db, cryptox.NewFieldCipher(masterKey), log)
	snaps := snapshot.New(st, cfg.PhotosDir, log)
	machine := lifecycle.New(st, snaps, log)

	var uploader backup.Uploader
	if cfg.S3AccessKey != "" {
		uploader = cloud.NewS3Uploader(cloud.S3Settings{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, log)
	}
	backups := backup.New(st,
		backup.NewStoreExporter(st, localUser),
		backup.NewStoreImporter(st, localUser),
		uploader,
		backup.Settings{
			UserID:          localUser,
			BackupsDir:      cfg.BackupsDir,
			CloudStagingDir: cfg.CloudStagingDir,
			Retention:       cfg.BackupRetention,
			SyncBackoff:     cfg.SyncBackoff,
			AppVersion:      appVersion,
			DeviceInfo:      deviceInfo(),
			Provider:        "s3",
		}, log)

	return &App{cfg: cfg, log: log, db: db, store: st, machine: machine, snaps: snaps, backups: backups}, nil
}

const appVersion = "1.0.0"

func deviceInfo() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%s (%s)", runtime.GOOS, runtime.GOARCH, host)
}

// loadOrCreateSalt keeps the key-derivation salt next to the database so the
// same password yields the same field keys across runs.
func loadOrCreateSalt(dir string) ([]byte, error) {
	path := filepath.Join(dir, "salt.bin")
	if salt, err := os.ReadFile(path); err == nil && len(salt) > 0 {
		return salt, nil
	}
	salt := cryptox.RandBytes(16)
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write salt: %w", err)
	}
	return salt, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) Run(ctx context.Context, args []string) error {
	if err := a.store.Initialize(ctx, localUser); err != nil {
		return err
	}
	return a.dispatch(ctx, args)
}
