package config

import (
	"flag"
	"os"

	"github.com/uploadthing/uploadthing-go/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-i string   ingest service base URL
//	-k string   API key
//	-a string   application id
//	-u string   callback URL the ingest service delivers hooks to
//	-l string   minimum log level (debug, info, warn, error)
//	-p string   daemon policy (ignore, await, callback)
//	-dev        development mode (use -dev=true / -dev=false)
//
// The arguments are filtered first so flag sets defined by the embedding
// host do not collide with these.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-i", "-k", "-a", "-u", "-l", "-p", "-dev"})

	fs := flag.NewFlagSet("uploadthing", flag.ContinueOnError)

	fs.StringVar(&config.IngestURL, "i", config.IngestURL, "ingest service base URL")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "API key")
	fs.StringVar(&config.AppID, "a", config.AppID, "application id")
	fs.StringVar(&config.CallbackURL, "u", config.CallbackURL, "callback URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "minimum log level")
	fs.StringVar(&config.DaemonPolicy, "p", config.DaemonPolicy, "daemon policy for detached tasks")
	fs.BoolVar(&config.IsDev, "dev", config.IsDev, "development mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
