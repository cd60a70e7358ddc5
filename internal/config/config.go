// Package config provides configuration management for the burst catalog
// service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Fetch   FetchConfig   `envPrefix:"FETCH_"`
	EDL     EDLConfig     `envPrefix:"EDL_"`
	Catalog CatalogConfig `envPrefix:"CATALOG_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FetchConfig contains remote fetch configuration.
type FetchConfig struct {
	// Workers bounds the number of concurrent burst fetches in a batch.
	Workers  int           `env:"WORKERS" envDefault:"4"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5m"`
	FailFast bool          `env:"FAIL_FAST" envDefault:"false"`
}

// EDLConfig contains Earthdata Login credentials for protected archives.
// Both fields empty means anonymous access.
type EDLConfig struct {
	Username string `env:"USERNAME" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
}

// CatalogConfig describes the products the service catalogs at startup.
type CatalogConfig struct {
	// ProductURLs is the comma-separated list of remote SAFE archive URLs.
	ProductURLs []string `env:"PRODUCT_URLS" envDefault:""`
	Title       string   `env:"TITLE" envDefault:"Sentinel-1 Burst Catalog"`
	Description string   `env:"DESCRIPTION" envDefault:"STAC catalog of individually addressable Sentinel-1 SLC bursts"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch workers must be at least 1, got %d", c.Fetch.Workers)
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout)
	}

	// Credentials travel as a pair.
	if (c.EDL.Username == "") != (c.EDL.Password == "") {
		return fmt.Errorf("EDL username and password must both be set or both be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
