// Package config loads bikereg settings from YAML, TOML or INI files and
// the environment.
package config

import (
	"time"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// Environment variables that override file settings.
const (
	EnvBackendURL = "BIKEREG_BACKEND_URL"
	EnvLogLevel   = "BIKEREG_LOG_LEVEL"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	Backend BackendSettings
	Schema  SchemaSettings
	Log     LogSettings
}

// BackendSettings configures the registration API client.
type BackendSettings struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// SchemaSettings tunes form validation.
type SchemaSettings struct {
	MinPurchaseDate time.Time
}

// LogSettings configures the console logger.
type LogSettings struct {
	Level ports.Level
	JSON  bool
}

// DefaultSettings returns the settings used when no file is found.
func DefaultSettings(version string) Settings {
	if version == "" {
		version = "dev"
	}
	return Settings{
		Backend: BackendSettings{
			BaseURL:   "http://localhost:3000/api",
			Timeout:   30 * time.Second,
			UserAgent: "bikereg/" + version,
		},
		Schema: SchemaSettings{
			MinPurchaseDate: registration.DefaultMinPurchaseDate,
		},
		Log: LogSettings{
			Level: ports.LevelInfo,
		},
	}
}

// Setting keys, written as section.key.
const (
	keyBackendURL       = "backend.base_url"
	keyBackendTimeout   = "backend.timeout"
	keyBackendUserAgent = "backend.user_agent"
	keyMinPurchaseDate  = "schema.min_purchase_date"
	keyLogLevel         = "log.level"
	keyLogJSON          = "log.json"
)

func knownKeys() []string {
	return []string{
		keyBackendURL,
		keyBackendTimeout,
		keyBackendUserAgent,
		keyMinPurchaseDate,
		keyLogLevel,
		keyLogJSON,
	}
}
