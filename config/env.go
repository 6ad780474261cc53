package config

import (
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvSecret       = "UPLOADTHING_SECRET"
	EnvAppID        = "UPLOADTHING_APP_ID"
	EnvIngestURL    = "UPLOADTHING_INGEST_URL"
	EnvCallbackURL  = "UPLOADTHING_CALLBACK_URL"
	EnvIsDev        = "UPLOADTHING_IS_DEV"
	EnvLogLevel     = "UPLOADTHING_LOG_LEVEL"
	EnvDaemonPolicy = "UPLOADTHING_DAEMON_POLICY"
)

// parseEnv overlays values from the environment. Unset variables leave the
// current value untouched.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvSecret); ok {
		config.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvAppID); ok {
		config.AppID = v
	}
	if v, ok := os.LookupEnv(EnvIngestURL); ok {
		config.IngestURL = v
	}
	if v, ok := os.LookupEnv(EnvCallbackURL); ok {
		config.CallbackURL = v
	}
	if v, ok := os.LookupEnv(EnvIsDev); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.IsDev = b
		}
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvDaemonPolicy); ok {
		config.DaemonPolicy = v
	}
}
