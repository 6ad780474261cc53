package config

import (
	"encoding/json"
	"os"

	"github.com/uploadthing/uploadthing-go/internal/flagx"
)

// jsonConfig is the file-layer DTO. Only fields present in the file
// override the current values, so partial files are fine.
type jsonConfig struct {
	IngestURL         *string `json:"ingest_url"`
	APIKey            *string `json:"api_key"`
	AppID             *string `json:"app_id"`
	CallbackURL       *string `json:"callback_url"`
	IsDev             *bool   `json:"is_dev"`
	LogLevel          *string `json:"log_level"`
	DaemonPolicy      *string `json:"daemon_policy"`
	ExposeErrorCauses *bool   `json:"expose_error_causes"`
}

// parseJSON overlays values from the JSON file named by -c/-config, if any.
// An unreadable or malformed file is a startup failure, so it panics just
// like a bad flag would abort.
func parseJSON(config *Config) {
	path := flagx.JSONConfigPath()
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(raw, c); err != nil {
		panic(err)
	}

	if c.IngestURL != nil {
		config.IngestURL = *c.IngestURL
	}
	if c.APIKey != nil {
		config.APIKey = *c.APIKey
	}
	if c.AppID != nil {
		config.AppID = *c.AppID
	}
	if c.CallbackURL != nil {
		config.CallbackURL = *c.CallbackURL
	}
	if c.IsDev != nil {
		config.IsDev = *c.IsDev
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.DaemonPolicy != nil {
		config.DaemonPolicy = *c.DaemonPolicy
	}
	if c.ExposeErrorCauses != nil {
		config.ExposeErrorCauses = *c.ExposeErrorCauses
	}
}
