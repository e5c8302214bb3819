// Package config loads application configuration in three layers:
//
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (CONFIG_PATH or a default search path)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mapconnect/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config holds all application configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Sweep    SweepConfig    `koanf:"sweep"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string `koanf:"address"` // listen address, e.g. ":8080"
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `koanf:"path"` // SQLite database file path
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"` // HS256 signing secret
}

// SweepConfig controls the background expiration sweep.
// An Interval <= 0 disables the background sweeper; the read path still
// sweeps inline before serving the public feed.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

func defaultConfig() *Config {
	return &Config{
		HTTP:     HTTPConfig{Address: ":8080"},
		Database: DatabaseConfig{Path: "mapconnect.db"},
		Auth:     AuthConfig{JWTSecret: ""},
		Sweep:    SweepConfig{Interval: time.Minute},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// envKeys maps environment variable names to config paths. Unlisted
// variables are ignored so unrelated environment noise never leaks in.
var envKeys = map[string]string{
	"HTTP_ADDRESS":   "http.address",
	"DB_PATH":        "database.path",
	"JWT_SECRET":     "auth.jwt_secret",
	"SWEEP_INTERVAL": "sweep.interval",
	"LOG_LEVEL":      "log.level",
	"LOG_FORMAT":     "log.format",
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables. It fails when no JWT secret is configured.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but substitutes a development JWT secret
// when none is configured.
// WARNING: only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string { return envKeys[s] }), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{HTTP: %s, DB: %s, Sweep: %s, Auth: *** (masked) ***}",
		c.HTTP.Address, c.Database.Path, c.Sweep.Interval)
}
