// Package config provides application configuration management.
//
// Configuration is loaded from environment variables using the envconfig package.
// This follows the 12-factor app methodology for configuration management.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/saidutt46/switchboard-router/internal/database"
	"github.com/saidutt46/switchboard-router/internal/router"
)

// Change feed sources.
const (
	FeedRedis = "redis"
	FeedKafka = "kafka"
	FeedNone  = "none"
)

// Config holds all application configuration.
//
// Configuration is loaded from environment variables with sensible defaults.
// Required fields will cause the application to fail if not provided.
type Config struct {
	// Environment
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Server
	ServerHost string `envconfig:"DISPATCH_HOST" default:"0.0.0.0"`
	ServerPort int    `envconfig:"DISPATCH_PORT" default:"8080"`

	// Database
	Database database.Config

	// Router
	Router RouterConfig

	// Route change feed
	ChangeFeed   string `envconfig:"CHANGE_FEED" default:"redis"` // redis, kafka or none
	RedisURL     string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"gateway.config.changes"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"dispatchd"`

	// Stats published to Redis; zero disables publishing
	StatsInterval time.Duration `envconfig:"STATS_INTERVAL" default:"15s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json or console

	// Shutdown
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// RouterConfig holds the options that affect route matching.
type RouterConfig struct {
	Engine        string `envconfig:"ROUTER_ENGINE" default:"auto"` // auto, primary or alternate
	CacheCapacity int    `envconfig:"ROUTER_CACHE_CAPACITY" default:"1024"`
	CacheEnabled  bool   `envconfig:"ROUTER_CACHE_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
//
// It uses envconfig to parse environment variables into the Config struct.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("server_host", cfg.ServerHost).
		Int("server_port", cfg.ServerPort).
		Str("router_engine", cfg.Router.Engine).
		Int("router_cache_capacity", cfg.Router.CacheCapacity).
		Bool("router_cache_enabled", cfg.Router.CacheEnabled).
		Str("change_feed", cfg.ChangeFeed).
		Str("log_level", cfg.LogLevel).
		Str("log_format", cfg.LogFormat).
		Msg("Configuration loaded successfully")

	return &cfg, nil
}

// Validate validates the configuration.
//
// Returns an error if any configuration values are invalid.
func (c *Config) Validate() error {
	validEnvironments := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}

	if !validEnvironments[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, production, or test)", c.Environment)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.ServerPort)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.LogFormat)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 1 {
		return fmt.Errorf("max_idle_conns must be at least 1")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) cannot be greater than max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if _, err := router.ParseEngineMode(c.Router.Engine); err != nil {
		return err
	}

	if c.Router.CacheCapacity < 1 {
		return fmt.Errorf("invalid router cache capacity: %d (must be at least 1)", c.Router.CacheCapacity)
	}

	switch c.ChangeFeed {
	case FeedRedis, FeedNone:
	case FeedKafka:
		if len(c.KafkaBrokerList()) == 0 {
			return fmt.Errorf("kafka change feed requires at least one broker")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("kafka change feed requires a topic")
		}
	default:
		return fmt.Errorf("invalid change feed: %s (must be redis, kafka, or none)", c.ChangeFeed)
	}

	if c.StatsInterval < 0 {
		return fmt.Errorf("invalid stats interval: %s", c.StatsInterval)
	}

	return nil
}

// RouterOptions converts the router settings into a router.Config.
// It assumes Validate has succeeded.
func (c *Config) RouterOptions() router.Config {
	mode, _ := router.ParseEngineMode(c.Router.Engine)
	return router.Config{
		Engine:        mode,
		CacheCapacity: c.Router.CacheCapacity,
		CacheEnabled:  c.Router.CacheEnabled,
	}
}

// KafkaBrokerList splits KafkaBrokers on commas, dropping empty entries.
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ServerAddress returns the server address in host:port format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
