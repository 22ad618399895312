package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"entrypack"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, "data/entrypack.db", cfg.DatabasePath)
	assert.Equal(t, 10, cfg.BackupRetention)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncBackoff)
	assert.Equal(t, "us-east-1", cfg.S3Region)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"database_path": "/tmp/other.db",
		"backup_retention": 3,
		"sync_backoff": "2s",
		"s3_bucket": "travel-backups"
	}`), 0o660))
	withArgs(t, "-c", file)

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, 3, cfg.BackupRetention)
	assert.Equal(t, 2*time.Second, cfg.SyncBackoff)
	assert.Equal(t, "travel-backups", cfg.S3Bucket)
	// untouched keys keep defaults
	assert.Equal(t, "data/backups", cfg.BackupsDir)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"backup_retention": 3}`), 0o660))
	withArgs(t, "-c", file, "-r", "7", "-b", "/var/backups")

	cfg := LoadConfig()
	assert.Equal(t, 7, cfg.BackupRetention)
	assert.Equal(t, "/var/backups", cfg.BackupsDir)
}
