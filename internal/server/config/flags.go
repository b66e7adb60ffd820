package config

import (
	"flag"

	"github.com/dmitrijs2005/flowrev/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-b string   public base URL used in attachment links
//	-s string   storage backend: postgres | memory
//	-d string   PostgreSQL DSN
//	-f string   attachment backend: local | s3
//	-u string   upload directory for the local backend
//	-r string   Redis URL enabling the board cache
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first, so the -c/-config flag
// read by parseFile does not trip this flag set.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-b", "-s", "-d", "-f", "-u", "-r", "-l"})

	fs := flag.NewFlagSet("flowrev", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.PublicBaseURL, "b", cfg.PublicBaseURL, "public base URL")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend (postgres, memory)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.AttachmentBackend, "f", cfg.AttachmentBackend, "attachment backend (local, s3)")
	fs.StringVar(&cfg.UploadDir, "u", cfg.UploadDir, "upload directory")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "redis URL for the board cache")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
