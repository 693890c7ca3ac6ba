// Package config loads the application's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when no path is supplied via flag or env.
const DefaultConfigFile = "config.yaml"

// ConfigPathEnv overrides the config file location when set.
const ConfigPathEnv = "COOKIEDECK_CONFIG"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, defaults to ":8318".
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or PostgreSQL DSN.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HS256 signing secret.
	ExpiryHours int    `yaml:"expiry-hours"` // Token lifetime, defaults to 72.
}

// Expiry returns the configured token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 72
	}
	return time.Duration(hours) * time.Hour
}

// RedisConfig holds optional cache settings. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port, empty to disable.
	Password string `yaml:"password"` // Optional password.
	DB       int    `yaml:"db"`       // Logical database index.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // logrus level name, defaults to "info".
	File       string `yaml:"file"`        // Rotating log file path, empty for stderr.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotation size in MB, defaults to 100.
	MaxBackups int    `yaml:"max-backups"` // Retained rotated files, defaults to 3.
}

// SeedConfig describes the admin account created on first migration.
type SeedConfig struct {
	AdminEmail    string `yaml:"admin-email"`    // Seed admin login email.
	AdminPassword string `yaml:"admin-password"` // Seed admin password, hashed before storage.
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

// ResolveConfigPath picks the config file path from the flag value, the
// environment, or the default, in that order.
func ResolveConfigPath(flagPath string) string {
	if trimmed := strings.TrimSpace(flagPath); trimmed != "" {
		return filepath.Clean(trimmed)
	}
	if fromEnv := strings.TrimSpace(os.Getenv(ConfigPathEnv)); fromEnv != "" {
		return filepath.Clean(fromEnv)
	}
	return DefaultConfigFile
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	var cfg Config
	if errDecode := yaml.Unmarshal(data, &cfg); errDecode != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errDecode)
	}
	cfg.applyDefaults()
	if errValidate := cfg.validate(); errValidate != nil {
		return nil, errValidate
	}
	return &cfg, nil
}

// applyDefaults fills unset fields with defaults.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8318"
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		c.Database.DSN = "cookiedeck.db"
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
}

// validate rejects configurations the server cannot run with.
func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	return nil
}
