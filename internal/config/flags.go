package config

import (
	"flag"
	"os"

	"github.com/mkazakovs/entrypack/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   path to the database file
//	-p string   photo storage directory
//	-b string   local backup directory
//	-r int      local backups to keep during cleanup
//
// Only these flags are parsed; os.Args is filtered through flagx.FilterArgs
// so subcommand arguments pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p", "-b", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the database file")
	fs.StringVar(&cfg.PhotosDir, "p", cfg.PhotosDir, "photo storage directory")
	fs.StringVar(&cfg.BackupsDir, "b", cfg.BackupsDir, "local backup directory")
	fs.IntVar(&cfg.BackupRetention, "r", cfg.BackupRetention, "local backups to keep")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
