// Package config resolves the cross-cutting external parameters of the SDK:
// ingest base URL, API credentials, environment mode, and daemon handling.
//
// Resolution is layered: defaults, then an optional JSON file (-c/-config),
// then environment variables, then command-line flags. Later layers win.
// The resolved Config is read-only for the lifetime of the process.
package config

import (
	"net/http"
	"net/url"

	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/internal/taskx"
	"github.com/uploadthing/uploadthing-go/uterror"
)

// Config holds the resolved runtime settings.
//
// Fields:
//   - IngestURL: base URL of the remote ingest service.
//   - APIKey / AppID: credentials issued for the application.
//   - CallbackURL: publicly reachable URL of the mounted handler, sent to
//     the ingest service so it can deliver completion callbacks.
//   - IsDev: development mode; metadata registration turns into a simulated
//     callback stream and no public callback URL is required.
//   - LogLevel: minimum log level (debug, info, warn, error).
//   - DaemonPolicy: what happens to detached tasks (ignore, await, callback).
//   - ExposeErrorCauses: include error causes in client-visible bodies.
//   - HTTPClient: optional transport override for outbound calls.
type Config struct {
	IngestURL         string
	APIKey            string
	AppID             string
	CallbackURL       string
	IsDev             bool
	LogLevel          string
	DaemonPolicy      string
	ExposeErrorCauses bool

	HTTPClient *http.Client `json:"-"`
}

// LoadDefaults populates Config with development defaults. The API key and
// app id have no defaults and must come from a later layer.
func (c *Config) LoadDefaults() {
	c.IngestURL = "https://ingest.uploadthing.com"
	c.LogLevel = "info"
	c.DaemonPolicy = string(taskx.PolicyIgnore)
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file, the environment, and finally command-line flags.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate checks the resolved configuration for self-contradictions.
// Failures are INVALID_SERVER_CONFIG errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return uterror.New(uterror.CodeInvalidServerConfig, "missing api key")
	}
	if c.AppID == "" {
		return uterror.New(uterror.CodeInvalidServerConfig, "missing app id")
	}
	if _, err := url.ParseRequestURI(c.IngestURL); err != nil {
		return uterror.Wrap(uterror.CodeInvalidServerConfig, "invalid ingest url", err)
	}
	policy, err := taskx.ParsePolicy(c.DaemonPolicy)
	if err != nil {
		return uterror.Wrap(uterror.CodeInvalidServerConfig, "invalid daemon policy", err)
	}
	if c.IsDev && policy == taskx.PolicyAwait {
		return uterror.New(uterror.CodeInvalidServerConfig,
			"daemon policy \"await\" cannot be combined with development mode: the dev metadata stream never completes")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return uterror.Wrap(uterror.CodeInvalidServerConfig, "invalid log level", err)
	}
	if !c.IsDev && c.CallbackURL == "" {
		return uterror.New(uterror.CodeInvalidServerConfig, "missing callback url (required outside development mode)")
	}
	return nil
}

// Policy returns the parsed daemon policy. Call Validate first.
func (c *Config) Policy() taskx.Policy {
	p, err := taskx.ParsePolicy(c.DaemonPolicy)
	if err != nil {
		return taskx.PolicyIgnore
	}
	return p
}

// Level returns the parsed minimum log level. Call Validate first.
func (c *Config) Level() logging.Level {
	l, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return l
}

// IngestBase returns the parsed ingest base URL. Call Validate first.
func (c *Config) IngestBase() *url.URL {
	u, err := url.Parse(c.IngestURL)
	if err != nil {
		return &url.URL{Scheme: "https", Host: "ingest.uploadthing.com"}
	}
	return u
}
