// pkg/config/types.go
package config

import (
	"time"

	"github.com/vulntor/vulntor/pkg/portscan"
)

// Config is the root configuration structure for the vulntor application.
// It aggregates all other specific configuration structs.
type Config struct {
	Log    LogConfig           `description:"Logging configuration" koanf:"log"`
	Server ServerConfig        `description:"HTTP server configuration" koanf:"server"`
	Scan   portscan.ScanConfig `description:"Default port scan configuration" koanf:"scan"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level set to vulntor logs." koanf:"level"`   // Log level (e.g., "debug", "info", "warn", "error")
	Format string `description:"Vulntor log format: json | text" koanf:"format"` // Log format (e.g., "json", "text")
	File   string `description:"Log file path" koanf:"file"`                     // Log file path (optional)
}

// ServerConfig holds HTTP server related configuration for the
// scan submission/status API and its optional UI frontend.
type ServerConfig struct {
	Addr         string        `description:"Listen address" koanf:"addr"`
	Port         int           `description:"Listen port" koanf:"port"`
	UIEnabled    bool          `description:"Serve the UI" koanf:"ui_enabled"`
	APIEnabled   bool          `description:"Serve the REST API" koanf:"api_enabled"`
	JobsEnabled  bool          `description:"Run background scan workers" koanf:"jobs_enabled"`
	WorkspaceDir string        `description:"Directory holding scan artifacts" koanf:"workspace_dir"`
	UIAssetsPath string        `description:"Override embedded UI assets with a disk path" koanf:"ui_assets_path"`
	Concurrency  int           `description:"Number of concurrent background scan workers" koanf:"concurrency"`
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout"`

	UI   UIConfig   `description:"UI specific settings" koanf:"ui"`
	Auth AuthConfig `description:"Authentication settings" koanf:"auth"`
}

// UIConfig holds settings specific to the optional web UI.
type UIConfig struct {
	DevMode    bool   `description:"Disable auth and restrict to localhost" koanf:"dev_mode"`
	AssetsPath string `description:"Serve UI assets from disk instead of the embedded bundle" koanf:"assets_path"`
}

// AuthConfig holds authentication settings for the HTTP server.
type AuthConfig struct {
	Mode  string `description:"Authentication mode: none|token|oidc" koanf:"mode"`
	Token string `description:"Static bearer token (token mode)" koanf:"token"`
}
