package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL used when rendering short links
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Redis configuration for the redirect/stats/search caches
	Redis struct {
		Addr              string `mapstructure:"addr"`                // host:port of the redis server
		Password          string `mapstructure:"password"`            // empty means no auth
		DB                int    `mapstructure:"db"`                  // redis logical database
		DefaultTTLSeconds int    `mapstructure:"default_ttl_seconds"` // TTL for redirect and search entries
	} `mapstructure:"redis"`

	// Auth configuration for JWT issuance
	Auth struct {
		JWTSecret          string `mapstructure:"jwt_secret"`
		TokenExpireMinutes int    `mapstructure:"token_expire_minutes"`
	} `mapstructure:"auth"`

	// Analytics configuration for asynchronous click tracking
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the click event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines processing clicks
	} `mapstructure:"analytics"`

	// Archiver configuration for the expired-link sweeper
	Archiver struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Interval between sweeps
	} `mapstructure:"archiver"`
}

// DefaultCacheTTL returns the configured TTL for redirect and search cache
// entries as a time.Duration.
func (c *Config) DefaultCacheTTL() time.Duration {
	return time.Duration(c.Redis.DefaultTTLSeconds) * time.Second
}

// TokenTTL returns the configured access-token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenExpireMinutes) * time.Minute
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding so any config value can be
	// overridden via environment variables (e.g. "redis.addr" -> REDIS_ADDR).
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Defaults are used when no config file is found or specific keys are missing.
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "shortly.db")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.default_ttl_seconds", 3600)
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.token_expire_minutes", 30)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("archiver.interval_minutes", 10)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal: the defaults above cover every key.
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Redis Addr=%s, Archiver Interval=%dmin",
		cfg.Server.Port, cfg.Database.Name, cfg.Redis.Addr, cfg.Archiver.IntervalMinutes)

	return &cfg, nil
}
