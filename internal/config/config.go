// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the SQLite database (always absolute)
	DatabaseDriver string
	DatabaseURL    string // Postgres connection string, ignored for sqlite
	LogLevel       string
	Port           int
	DevMode        bool
	CORSOrigins    []string
	Market         MarketConfig
	Sources        SourcesConfig
	Backup         BackupConfig
	UniverseFile   string // Empty means the embedded Nifty 50 list
	Workers        int    // Concurrent symbols per run
}

// MarketConfig holds the schedule and trading calendar
type MarketConfig struct {
	Timezone string
	Schedule string   // Standard 5-field cron expression
	Holidays []string // YYYY-MM-DD
}

// SourcesConfig holds upstream endpoints and their timeouts
type SourcesConfig struct {
	ServiceURL     string
	ServiceTimeout time.Duration
	BatchTimeout   time.Duration
	NSEBaseURL     string
	NSETimeout     time.Duration
	RequestDelay   time.Duration
}

// BackupConfig holds S3 snapshot settings. Backups are off when Bucket is empty.
type BackupConfig struct {
	Bucket          string
	Prefix          string
	Endpoint        string // S3-compatible endpoint (R2, MinIO); empty means AWS
	Region          string
	AccessKeyID     string // Empty means the default AWS credential chain
	SecretAccessKey string
	RetentionDays   int    // 0 keeps every backup
}

// Enabled reports whether backups are configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnvAsInt("PORT", 8000),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
		UniverseFile:   getEnv("UNIVERSE_FILE", ""),
		Workers:        getEnvAsInt("ACQUISITION_WORKERS", 4),
		Market: MarketConfig{
			Timezone: getEnv("MARKET_TIMEZONE", "Asia/Kolkata"),
			Schedule: getEnv("SCHEDULE_CRON", "30 15 * * MON-FRI"),
			Holidays: getEnvAsList("MARKET_HOLIDAYS", nil),
		},
		Sources: SourcesConfig{
			ServiceURL:     strings.TrimRight(getEnv("PE_SERVICE_URL", "http://localhost:3001"), "/"),
			ServiceTimeout: getEnvAsDuration("PE_SERVICE_TIMEOUT", 30*time.Second),
			BatchTimeout:   getEnvAsDuration("PE_BATCH_TIMEOUT", 120*time.Second),
			NSEBaseURL:     strings.TrimRight(getEnv("NSE_BASE_URL", "https://www.nseindia.com"), "/"),
			NSETimeout:     getEnvAsDuration("NSE_TIMEOUT", 10*time.Second),
			RequestDelay:   getEnvAsDuration("NSE_REQUEST_DELAY", time.Second),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Prefix:          getEnv("BACKUP_PREFIX", "petracker"),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "us-east-1"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == DriverSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("invalid MARKET_TIMEZONE %q: %w", c.Market.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Market.Schedule); err != nil {
		return fmt.Errorf("invalid SCHEDULE_CRON %q: %w", c.Market.Schedule, err)
	}
	for _, day := range c.Market.Holidays {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return fmt.Errorf("invalid MARKET_HOLIDAYS entry %q: %w", day, err)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("ACQUISITION_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.Sources.ServiceTimeout <= 0 || c.Sources.BatchTimeout <= 0 || c.Sources.NSETimeout <= 0 {
		return fmt.Errorf("source timeouts must be positive")
	}
	if c.Sources.RequestDelay < 0 {
		return fmt.Errorf("NSE_REQUEST_DELAY must not be negative")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}
	if (c.Backup.AccessKeyID == "") != (c.Backup.SecretAccessKey == "") {
		return fmt.Errorf("BACKUP_ACCESS_KEY_ID and BACKUP_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// DatabasePath returns the SQLite file location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "petracker.db")
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

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
