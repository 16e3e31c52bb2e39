// Package config loads vault-console settings from defaults, the YAML file in
// the data directory, and VAULT_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// FileName is the config file inside the data directory.
const FileName = "config.yaml"

// Config holds every tunable of the server and the console client.
type Config struct {
	ServerAddr    string        `koanf:"server_addr"`
	ListenAddr    string        `koanf:"listen_addr"`
	DataDir       string        `koanf:"data_dir"`
	AuditLimit    int           `koanf:"audit_limit"`
	FeedbackDelay time.Duration `koanf:"feedback_delay"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	LogLevel      string        `koanf:"log_level"`
	DownloadDir   string        `koanf:"download_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:    "http://127.0.0.1:7300",
		ListenAddr:    "127.0.0.1:7300",
		AuditLimit:    50,
		FeedbackDelay: 4 * time.Second,
		SessionTTL:    15 * time.Minute,
		LogLevel:      "info",
		DownloadDir:   ".",
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (VAULT_SERVER_ADDR -> server_addr, etc).
// A missing file yields the defaults. DataDir defaults to the file's
// directory.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("VAULT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "VAULT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(path)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path. Durations are
// written in their string form so the file stays hand-editable.
func (c *Config) Save(path string) error {
	doc := map[string]any{
		"server_addr":    c.ServerAddr,
		"listen_addr":    c.ListenAddr,
		"audit_limit":    c.AuditLimit,
		"feedback_delay": c.FeedbackDelay.String(),
		"session_ttl":    c.SessionTTL.String(),
		"log_level":      c.LogLevel,
		"download_dir":   c.DownloadDir,
	}
	data, err := yamlv3.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}
	if !strings.HasPrefix(c.ServerAddr, "http://") && !strings.HasPrefix(c.ServerAddr, "https://") {
		return fmt.Errorf("server_addr %q must start with http:// or https://", c.ServerAddr)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.AuditLimit <= 0 {
		return fmt.Errorf("audit_limit must be positive")
	}
	if c.FeedbackDelay <= 0 {
		return fmt.Errorf("feedback_delay must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
