package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mkazakovs/entrypack/internal/flagx"
	"github.com/mkazakovs/entrypack/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals go
// through timex.Duration so the file can hold "500ms" style strings.
type JsonConfig struct {
	DatabasePath    string         `json:"database_path"`
	PhotosDir       string         `json:"photos_dir"`
	BackupsDir      string         `json:"backups_dir"`
	CloudStagingDir string         `json:"cloud_staging_dir"`
	BackupRetention int            `json:"backup_retention"`
	SyncBackoff     timex.Duration `json:"sync_backoff"`

	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// Absent keys keep their current values. Read or parse errors panic, the
// caller cannot do anything useful with a broken config file.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PhotosDir != "" {
		cfg.PhotosDir = jc.PhotosDir
	}
	if jc.BackupsDir != "" {
		cfg.BackupsDir = jc.BackupsDir
	}
	if jc.CloudStagingDir != "" {
		cfg.CloudStagingDir = jc.CloudStagingDir
	}
	if jc.BackupRetention > 0 {
		cfg.BackupRetention = jc.BackupRetention
	}
	if jc.SyncBackoff.Duration > 0 {
		cfg.SyncBackoff = time.Duration(jc.SyncBackoff.Duration)
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
}
