package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported quote sources
const (
	QuoteSourceStatic = "static"
	QuoteSourceYahoo  = "yahoo"
)

// Config holds application configuration
type Config struct {
	DBDriver     string
	DBConnStr    string
	SQLitePath   string
	APIToken     string
	GRPCPort     int
	LogLevel     string
	LogPretty    bool
	QuoteSource  string
	StaticQuotes string // SYM=PRICE pairs, comma separated
	QuoteTTL     time.Duration
	QuoteRate    int    // Remote quote lookups allowed per minute. Zero disables throttling.
	SnapshotCron string // Empty disables scheduled snapshots
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:     getEnv("DB_DRIVER", DriverPostgres),
		DBConnStr:    getEnv("DB_CONN_STR", ""),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/portfolio.db"),
		APIToken:     getEnv("API_TOKEN", "dev-token"),
		GRPCPort:     getEnvAsInt("GRPC_PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		QuoteSource:  getEnv("QUOTE_SOURCE", QuoteSourceStatic),
		StaticQuotes: getEnv("STATIC_QUOTES", ""),
		QuoteTTL:     getEnvAsDuration("QUOTE_TTL", time.Minute),
		QuoteRate:    getEnvAsInt("QUOTE_RATE_LIMIT", 60),
		SnapshotCron: getEnv("SNAPSHOT_CRON", "0 17 * * 1-5"),
	}

	if cfg.DBConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "lotwise"),
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.QuoteSource {
	case QuoteSourceStatic, QuoteSourceYahoo:
	default:
		return fmt.Errorf("unsupported QUOTE_SOURCE %q", c.QuoteSource)
	}

	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT out of range: %d", c.GRPCPort)
	}
	if c.QuoteTTL < 0 {
		return fmt.Errorf("QUOTE_TTL cannot be negative")
	}
	if c.QuoteRate < 0 {
		return fmt.Errorf("QUOTE_RATE_LIMIT cannot be negative")
	}
	return nil
}

// GRPCAddr returns the listen address for the gRPC server
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
