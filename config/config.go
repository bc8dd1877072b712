package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all server parameters.
type Config struct {
	Port      int    `json:"port" env:"PORT"`
	PublicURL string `json:"public_url" env:"PUBLIC_URL"`

	// WordDataPath points at a word data JSON file. Empty uses the built-in words.
	WordDataPath string `json:"word_data_path" env:"WORD_DATA_PATH"`

	SettingsBackend string `json:"settings_backend" env:"SETTINGS_BACKEND"`
	SQLitePath      string `json:"sqlite_path" env:"SQLITE_PATH"`
	DatabaseURL     string `json:"-" env:"DATABASE_URL"`

	// ResumeSecret signs resume tokens. Empty means a random per-process secret.
	ResumeSecret    string `json:"-" env:"RESUME_SECRET"`
	ResumeWindowSec int    `json:"resume_window_sec" env:"RESUME_WINDOW_SEC"`

	// Seed fixes the random source for reproducible games. 0 seeds from crypto/rand.
	Seed int64 `json:"seed" env:"SEED"`

	LogLevel      string `json:"log_level" env:"LOG_LEVEL"`
	MaxNameLength int    `json:"max_name_length" env:"MAX_NAME_LENGTH"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Port:            8080,
		SettingsBackend: BackendSQLite,
		SQLitePath:      "imposter.db",
		ResumeWindowSec: 120,
		LogLevel:        "info",
		MaxNameLength:   24,
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit file path. A missing file is not an error.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	// Parse into a copy so one bad variable leaves file/default values intact.
	next := *cfg
	if err := ParseEnv(&next); err != nil {
		slog.Warn("ignoring environment overrides", "tag", "config", "err", err)
	} else {
		cfg = &next
	}

	cfg.normalize()
	return cfg
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	d := Defaults()
	switch c.SettingsBackend {
	case BackendMemory, BackendSQLite, BackendPostgres:
	default:
		slog.Warn("unknown settings backend, using default", "tag", "config", "backend", c.SettingsBackend, "default", d.SettingsBackend)
		c.SettingsBackend = d.SettingsBackend
	}
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = d.MaxNameLength
	}
	if c.ResumeWindowSec < 0 {
		c.ResumeWindowSec = 0
	}
	c.PublicURL = c.BaseURL()
}

// BaseURL is the address other devices use to open the UI: PublicURL when
// set, otherwise localhost on Port.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// ResumeWindow is how long a disconnected session stays resumable.
func (c *Config) ResumeWindow() time.Duration {
	return time.Duration(c.ResumeWindowSec) * time.Second
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
