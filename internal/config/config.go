package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8317".
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL DSN or SQLite file path.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string        `yaml:"secret"`       // HMAC signing secret.
	Expiry      time.Duration `yaml:"expiry"`       // Applicant token lifetime.
	AdminExpiry time.Duration `yaml:"admin_expiry"` // Super-admin token lifetime.
}

// SMTPConfig holds outbound mail settings. Empty host disables mail.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Log file path; empty logs to stderr.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotation size threshold.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep.
}

// Policy holds the lifecycle policy defaults. Individual values can be
// overridden at runtime through the settings table.
type Policy struct {
	CodeTTLDays       int `yaml:"code_ttl_days"`       // Verification code lifetime in days.
	CodeLength        int `yaml:"code_length"`         // Verification code length in characters.
	MaxRejections     int `yaml:"max_rejections"`      // Rejection count that permanently blocks reapplication.
	MinReasonLength   int `yaml:"min_reason_length"`   // Minimum reject/remove reason length.
	ApplyPerHour      int `yaml:"apply_per_hour"`      // Apply attempts allowed per subject per hour.
	RevalidatePerHour int `yaml:"revalidate_per_hour"` // Revalidation attempts allowed per subject per hour.
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Log      LogConfig      `yaml:"log"`
	Policy   Policy         `yaml:"policy"`
}

// DefaultPolicy returns the built-in policy values.
func DefaultPolicy() Policy {
	return Policy{
		CodeTTLDays:       30,
		CodeLength:        8,
		MaxRejections:     3,
		MinReasonLength:   10,
		ApplyPerHour:      5,
		RevalidatePerHour: 2,
	}
}

// ResolveConfigPath picks the config path from the argument, the
// MASJID_CONFIG environment variable, or the default location.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("MASJID_CONFIG")); env != "" {
		return env
	}
	return "config.yaml"
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	cfg := &Config{Policy: DefaultPolicy()}
	if errDecode := yaml.Unmarshal(data, cfg); errDecode != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errDecode)
	}
	cfg.applyDefaults()
	if errValidate := cfg.validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8317"
	}
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = 24 * time.Hour
	}
	if c.JWT.AdminExpiry <= 0 {
		c.JWT.AdminExpiry = 12 * time.Hour
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	def := DefaultPolicy()
	if c.Policy.CodeTTLDays <= 0 {
		c.Policy.CodeTTLDays = def.CodeTTLDays
	}
	if c.Policy.CodeLength <= 0 {
		c.Policy.CodeLength = def.CodeLength
	}
	if c.Policy.MaxRejections <= 0 {
		c.Policy.MaxRejections = def.MaxRejections
	}
	if c.Policy.MinReasonLength <= 0 {
		c.Policy.MinReasonLength = def.MinReasonLength
	}
	if c.Policy.ApplyPerHour <= 0 {
		c.Policy.ApplyPerHour = def.ApplyPerHour
	}
	if c.Policy.RevalidatePerHour <= 0 {
		c.Policy.RevalidatePerHour = def.RevalidatePerHour
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	return nil
}
