// Package config handles resolving configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// TLS configures the web listener's TLS termination. When SelfSigned is set a
// throwaway certificate is generated at startup, the equivalent of an ad-hoc
// dev cert: phones will prompt about it, but camera access works.
type TLS struct {
	SelfSigned bool   `yaml:"self_signed"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
}

// Enabled reports whether the web listener should terminate TLS.
func (t TLS) Enabled() bool {
	return t.SelfSigned || (t.CertFile != "" && t.KeyFile != "")
}

// Config is the resolved application configuration.
type Config struct {
	LogLevel   string `yaml:"log_level"`
	WebAddress string `yaml:"web_address"`
	APIAddress string `yaml:"api_address"`
	DBFilepath string `yaml:"db_filepath"`
	// PublicURL is the externally reachable URL, if the app sits behind a
	// proxy or is advertised under a hostname. Used for the secure-context
	// startup check.
	PublicURL string `yaml:"public_url"`
	DevMode   bool   `yaml:"dev_mode"`
	TLS       TLS    `yaml:"tls"`
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel:   "INFO",
		WebAddress: "localhost:9999",
		APIAddress: "localhost:9998",
		DBFilepath: filepath.Join(xdg.DataHome, "stockroom", "db.sqlite"),
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults,
// and validates it for completeness.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	if _, ok := c.SlogLevel(); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.DBFilepath == "" {
		return fmt.Errorf("db_filepath must not be empty")
	}
	if c.WebAddress == "" && c.APIAddress == "" {
		return fmt.Errorf("at least one of web_address or api_address must be set")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("tls cert_file and key_file must be set together")
	}
	if c.TLS.SelfSigned && c.TLS.CertFile != "" {
		return fmt.Errorf("tls self_signed and cert_file/key_file are mutually exclusive")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("public_url %q is not an absolute URL", c.PublicURL)
		}
	}
	return nil
}

// SlogLevel resolves the configured log level name.
func (c *Config) SlogLevel() (slog.Level, bool) {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug, true
	case "", "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Marshal renders the config back to YAML, used when initializing a config
// file on first run.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return data, nil
}
