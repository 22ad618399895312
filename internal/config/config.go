// Package config loads runtime configuration for the entrypack data core.
//
// Sources and precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
package config

import "time"

// Config holds runtime settings for the data core and its CLI.
type Config struct {
	DatabasePath    string
	PhotosDir       string
	BackupsDir      string
	CloudStagingDir string
	BackupRetention int
	SyncBackoff     time.Duration

	S3Region    string
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "data/entrypack.db"
	c.PhotosDir = "data/photos"
	c.BackupsDir = "data/backups"
	c.CloudStagingDir = "data/cloud"
	c.BackupRetention = 10
	c.SyncBackoff = 500 * time.Millisecond
	c.S3Region = "us-east-1"
	c.S3Bucket = "entrypack-backups"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
