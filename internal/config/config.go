package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// NOTE: YAML-based load/save with first-run config creation and 0600
// permissions. Environment overrides are applied by ApplyEnv after Load.

const (
	DefaultListen  = "127.0.0.1:8080"
	DefaultBaseURL = "https://fsa-crud-2aa9294fe819.herokuapp.com/api"
	DefaultCohort  = "/2508-FTB-ET-WEB-FT"

	defaultTimeoutSeconds  = 15
	defaultUserAgent       = "partyplanner/1.0"
	defaultSnapshotWidth   = 1280
	defaultSnapshotHeight  = 960
	defaultSnapshotTimeout = 30
)

// APIConfig describes the remote party API.
type APIConfig struct {
	// BaseURL is the API root without the cohort segment.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Cohort is the path segment appended to BaseURL, e.g. "/2508-FTB-ET-WEB-FT".
	Cohort string `yaml:"cohort" json:"cohort"`
	// TimeoutSeconds bounds every round trip.
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
}

// Root returns BaseURL joined with Cohort.
func (a APIConfig) Root() string {
	base := strings.TrimRight(a.BaseURL, "/")
	cohort := strings.Trim(a.Cohort, "/")
	if cohort == "" {
		return base
	}
	return base + "/" + cohort
}

// Timeout returns TimeoutSeconds as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web UI.
// PasswordHash (bcrypt) takes precedence over Password when both are set.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password,omitempty" json:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty" json:"password_hash,omitempty"`
}

// SnapshotConfig controls the headless page capture.
type SnapshotConfig struct {
	Path           string `yaml:"path" json:"path"`
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the planner UI.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	API APIConfig `yaml:"api" json:"api"`

	// RefreshCron, if set, re-runs the startup fetch sequence on a cron
	// schedule (e.g. "*/15 * * * *"). Empty leaves cached lists as loaded.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ShowErrors renders the last failed operation on the next page view.
	ShowErrors bool `yaml:"show_errors" json:"show_errors"`

	// CSRFKey is a hex-encoded 32 byte key. A random key is generated per
	// process when empty.
	CSRFKey string `yaml:"csrf_key,omitempty" json:"-"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   DefaultListen,
		LogLevel: "info",
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Cohort:         DefaultCohort,
			TimeoutSeconds: defaultTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Snapshot: SnapshotConfig{
			Path:           "./preview.png",
			Width:          defaultSnapshotWidth,
			Height:         defaultSnapshotHeight,
			TimeoutSeconds: defaultSnapshotTimeout,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "./preview.png"
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = defaultSnapshotWidth
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = defaultSnapshotHeight
	}
	if c.Snapshot.TimeoutSeconds <= 0 {
		c.Snapshot.TimeoutSeconds = defaultSnapshotTimeout
	}
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.CSRFKeyBytes(); err != nil {
		return err
	}
	if c.BasicAuth != nil && c.BasicAuth.Username != "" &&
		c.BasicAuth.Password == "" && c.BasicAuth.PasswordHash == "" {
		return errors.New("basic_auth: password or password_hash is required")
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
	}
	return nil
}

// CSRFKeyBytes decodes CSRFKey. It returns nil, nil when no key is configured.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("csrf_key must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// ApplyEnv overrides selected fields from the environment. Variables are
// typically loaded from a .env file by the caller first.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PARTYPLANNER_API_BASE"); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv("PARTYPLANNER_COHORT"); v != "" {
		c.API.Cohort = v
	}
	if v := getenv("PARTYPLANNER_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("PARTYPLANNER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config with 0600 perms
//     (creating the parent directory) and return it.
//   - If the file exists: unmarshal it and normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".partyplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
