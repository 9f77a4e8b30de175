package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	OpenInsider   OpenInsiderConfig
	CapitolTrades CapitolTradesConfig
	Fintel        FintelConfig

	// Strategy file (fusion weights, trust decay, squeeze thresholds)
	StrategyFile string

	// Holdings file: operator-curated 13F snapshot for the
	// institutional overlap column. Empty disables the source.
	HoldingsFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// OpenInsiderConfig holds the insider cluster-buy source configuration.
type OpenInsiderConfig struct {
	BaseURL      string
	RequestLimit int           // requests per window
	LimitWindow  time.Duration // rate limit window
}

// CapitolTradesConfig holds the legislator disclosure source configuration.
type CapitolTradesConfig struct {
	BaseURL      string
	APIKey       string
	RequestLimit int
	LimitWindow  time.Duration
}

// FintelConfig holds the short-interest source configuration.
type FintelConfig struct {
	BaseURL      string
	RequestLimit int
	LimitWindow  time.Duration
	CacheTTL     time.Duration // short-interest snapshot TTL
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		OpenInsider: OpenInsiderConfig{
			BaseURL:      getEnv("OPENINSIDER_BASE_URL", "http://openinsider.com"),
			RequestLimit: getEnvAsInt("OPENINSIDER_REQUEST_LIMIT", 10),
			LimitWindow:  getEnvAsDuration("OPENINSIDER_LIMIT_WINDOW", "1m"),
		},

		CapitolTrades: CapitolTradesConfig{
			BaseURL:      getEnv("CAPITOLTRADES_BASE_URL", "https://bff.capitoltrades.com"),
			APIKey:       getEnv("CAPITOLTRADES_API_KEY", ""),
			RequestLimit: getEnvAsInt("CAPITOLTRADES_REQUEST_LIMIT", 30),
			LimitWindow:  getEnvAsDuration("CAPITOLTRADES_LIMIT_WINDOW", "1m"),
		},

		Fintel: FintelConfig{
			BaseURL:      getEnv("FINTEL_BASE_URL", "https://fintel.io"),
			RequestLimit: getEnvAsInt("FINTEL_REQUEST_LIMIT", 10),
			LimitWindow:  getEnvAsDuration("FINTEL_LIMIT_WINDOW", "1m"),
			CacheTTL:     getEnvAsDuration("FINTEL_CACHE_TTL", "168h"),
		},

		StrategyFile: getEnv("STRATEGY_FILE", "config/strategy/default.yaml"),
		HoldingsFile: getEnv("HOLDINGS_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
