package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the root configuration for rapportini, stored in ~/.rapportini/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// DataDir holds rapportini.json, rapportini.csv and cached auth tokens.
	DataDir string        `json:"data_dir"`
	Server  ServerConfig  `json:"server"`
	Logging LoggingConfig `json:"logging"`
	Billing BillingConfig `json:"billing"`
	Outlook OutlookConfig `json:"outlook"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string `json:"addr"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is text or json.
	Format string `json:"format"`
}

// BillingConfig holds defaults used when records are created automatically.
type BillingConfig struct {
	// HourlyRate multiplies synced hours into an amount. Zero leaves amounts at 0.
	HourlyRate float64 `json:"hourly_rate"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// DefaultClient is the client name assigned to imported calendar events.
	DefaultClient string `json:"default_client"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Rome"). Empty = UTC.
	Timezone string `json:"timezone"`
}

const (
	// DefaultAddr matches the port the browser front end expects.
	DefaultAddr = ":3000"
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultClient is the client name used for synced events when none is specified.
	DefaultClient = "Calendar"
)

// Environment variables that override the file.
const (
	EnvDataDir   = "RAPPORTINI_DATA_DIR"
	EnvAddr      = "RAPPORTINI_ADDR"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig(home string) Config {
	return Config{
		DataDir: filepath.Join(home, ".rapportini", "database"),
		Server:  ServerConfig{Addr: DefaultAddr},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Outlook: OutlookConfig{
			TenantID:      DefaultTenantID,
			ClientID:      DefaultClientID,
			DefaultClient: DefaultClient,
			Timezone:      "",
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// rapportini configuration – ~/.rapportini/config.json
//
// All settings are optional. Environment variables (or a .env file in the
// working directory) override them: RAPPORTINI_DATA_DIR, RAPPORTINI_ADDR,
// LOG_LEVEL, LOG_FORMAT.
{
  // Directory holding rapportini.json and the exported rapportini.csv.
  // Leave empty for ~/.rapportini/database.
  "data_dir": "",

  "server": {
    // Listen address for "rapportini serve".
    "addr": ":3000"
  },

  "logging": {
    // debug, info, warn or error.
    "level": "info",
    // text or json.
    "format": "text"
  },

  "billing": {
    // Hourly rate used to compute the amount of reports synced from Outlook.
    "hourly_rate": 0
  },

  // ── Microsoft Graph / Outlook calendar sync ──────────────────────────────
  "outlook": {
    // Azure AD tenant ID. "common" works for personal accounts and most organisations.
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // Client name assigned to reports created from calendar events.
    // Can be overridden per-sync with: rapportini outlook sync --client <name>
    "default_client": "Calendar",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Rome".
    // Leave empty to use UTC.
    "timezone": ""
  }
}
`

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file at path (~/.rapportini/config.json when empty), creating it
// with annotated defaults on first run, then applies .env and environment
// overrides.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if path == "" {
		path = filepath.Join(home, ".rapportini", "config.json")
	}

	cfg, err := loadFile(path, home)
	if err != nil {
		return cfg, err
	}

	// A missing .env file is normal.
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path, home string) (Config, error) {
	defaults := defaultConfig(home)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaults, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Outlook.DefaultClient == "" {
		cfg.Outlook.DefaultClient = DefaultClient
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = v
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
