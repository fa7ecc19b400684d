// Package config loads the service configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the complete service configuration. Every field can be set from
// the environment; StoreBackend selects between the in-memory store and
// PostgreSQL.
type Config struct {
	Port            int           `yaml:"port" env:"PORT" env-default:"8080"`
	StoreBackend    string        `yaml:"store_backend" env:"TODO_STORE_BACKEND" env-default:"memory"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	Log             Log           `yaml:"log"`
	Database        Database      `yaml:"database"`
}

// Log controls the process logger. Level is one of debug, info, warn or
// error; Format is text, json or logfmt.
type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Database holds the PostgreSQL connection settings. It is only read when
// StoreBackend is "postgres" and keeps the BLUEPRINT_DB_* variable names used
// by existing deployments.
type Database struct {
	Host     string `yaml:"host" env:"BLUEPRINT_DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"BLUEPRINT_DB_PORT" env-default:"5432"`
	Database string `yaml:"database" env:"BLUEPRINT_DB_DATABASE" env-default:"todo"`
	Username string `yaml:"username" env:"BLUEPRINT_DB_USERNAME" env-default:"postgres"`
	Password string `yaml:"password" env:"BLUEPRINT_DB_PASSWORD"`
	Schema   string `yaml:"schema" env:"BLUEPRINT_DB_SCHEMA"`
}

// Load reads path (yaml, toml, json or .env) when it is non-empty, otherwise
// only the environment. Environment variables always win over file values.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects an unknown store backend, a port outside 1-65535 and a
// non-positive shutdown timeout.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("invalid store backend %q: want %q or %q", c.StoreBackend, BackendMemory, BackendPostgres)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
