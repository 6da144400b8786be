package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Navigation NavigationConfig
	Catalog    CatalogConfig
	Modules    ModulesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string `envconfig:"PORT" default:"8000"`
	Host     string `envconfig:"HOST" default:"0.0.0.0"`
	Compress bool   `envconfig:"HTTP_COMPRESS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// NavigationConfig locates the static navigation catalog.
// Path may be a single file or a directory of .yaml/.yml/.toml/.json files.
type NavigationConfig struct {
	Path string `envconfig:"NAVIGATION_PATH" default:"./configs/navigation"`
}

// CatalogConfig selects where program catalogs are fetched from.
// When BaseURL is set catalogs come over HTTP, otherwise from Dir.
type CatalogConfig struct {
	BaseURL     string        `envconfig:"CATALOG_BASE_URL"`
	URLTemplate string        `envconfig:"CATALOG_URL_TEMPLATE" default:"{base}/{section}.json"`
	Dir         string        `envconfig:"CATALOG_DIR" default:"./configs/catalogs"`
	Timeout     time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s"`
	RateLimit   float64       `envconfig:"CATALOG_RPS" default:"0"`
}

// ModulesConfig locates script modules and bounds their launch.
type ModulesConfig struct {
	Root          string        `envconfig:"MODULES_ROOT" default:"./modules"`
	Watch         bool          `envconfig:"MODULES_WATCH" default:"false"`
	LaunchTimeout time.Duration `envconfig:"MODULES_LAUNCH_TIMEOUT" default:"5s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8000",
			Host:     "0.0.0.0",
			Compress: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Navigation: NavigationConfig{
			Path: "./configs/navigation",
		},
		Catalog: CatalogConfig{
			URLTemplate: "{base}/{section}.json",
			Dir:         "./configs/catalogs",
			Timeout:     10 * time.Second,
		},
		Modules: ModulesConfig{
			Root:          "./modules",
			LaunchTimeout: 5 * time.Second,
		},
	}
}
