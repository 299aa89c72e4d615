package config

import (
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Driver kinds selectable via DRIVER.
const (
	DriverWebDriver = "webdriver"
	DriverSim       = "sim"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Snapshot  SnapshotConfig
	Driver    DriverConfig
	Game      GameConfig
	Gateway   GatewayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// StoreConfig holds backup store configuration.
type StoreConfig struct {
	Dir      string `envconfig:"DATA_DIR" default:"data"`
	File     string `envconfig:"BACKUP_FILE" default:"backups.jsonl"`
	Capacity int    `envconfig:"BACKUP_CAPACITY" default:"512"`
}

// Path returns the backup log location inside the data directory.
func (s StoreConfig) Path() string {
	return filepath.Join(s.Dir, s.File)
}

// SnapshotConfig holds the scheduled snapshot cadence.
type SnapshotConfig struct {
	Interval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"60s"`
}

// DriverConfig selects and tunes the game driver.
type DriverConfig struct {
	Kind           string        `envconfig:"DRIVER" default:"webdriver"`
	URL            string        `envconfig:"DRIVER_URL" default:"http://localhost:9515"`
	Timeout        time.Duration `envconfig:"DRIVER_TIMEOUT" default:"30s"`
	RetryMax       int           `envconfig:"DRIVER_RETRY_MAX" default:"2"`
	CallsPerSecond float64       `envconfig:"DRIVER_RATE" default:"0"`
	SimRate        float64       `envconfig:"SIM_RATE" default:"10"`
}

// GameConfig selects the game profile.
type GameConfig struct {
	ProfilePath string `envconfig:"PROFILE_PATH" default:""`
	ProfileGlob string `envconfig:"PROFILE_GLOB" default:""`
	ProfileName string `envconfig:"PROFILE_NAME" default:""`
}

// GatewayConfig holds chat gateway settings. TokenHash is a bcrypt hash
// of the bearer token clients must present; empty disables auth.
type GatewayConfig struct {
	TokenHash string `envconfig:"GATEWAY_TOKEN_HASH" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects configurations the warden cannot run with.
func (c *Config) Validate() error {
	if c.Store.Capacity < 1 {
		return fmt.Errorf("backup capacity must be positive, got %d", c.Store.Capacity)
	}
	if c.Snapshot.Interval < time.Second || c.Snapshot.Interval > 5*time.Minute {
		return fmt.Errorf("snapshot interval must be between 1s and 5m, got %s", c.Snapshot.Interval)
	}
	switch c.Driver.Kind {
	case DriverWebDriver, DriverSim:
	default:
		return fmt.Errorf("unknown driver kind %q", c.Driver.Kind)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "0.0.0.0",
		},
		Store: StoreConfig{
			Dir:      "data",
			File:     "backups.jsonl",
			Capacity: 512,
		},
		Snapshot: SnapshotConfig{
			Interval: 60 * time.Second,
		},
		Driver: DriverConfig{
			Kind:           DriverWebDriver,
			URL:            "http://localhost:9515",
			Timeout:        30 * time.Second,
			RetryMax:       2,
			CallsPerSecond: 0,
			SimRate:        10,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
