// Package config provides database configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appConfig "github.com/festy23/prtracker/internal/config"
	"github.com/festy23/prtracker/pkg/retry"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Config holds storage connection configuration.
type Config struct {
	// Driver is one of sqlite, postgres, memory.
	Driver string
	// Path is the SQLite database file.
	Path string

	// PostgreSQL connection settings.
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
	TimeZone string
}

// LoadConfigFromEnv loads storage configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Driver:   appConfig.GetEnv("DB_DRIVER", DriverSQLite),
		Path:     appConfig.GetEnv("DB_PATH", DefaultSQLitePath()),
		Host:     appConfig.GetEnv("DB_HOST", "localhost"),
		User:     appConfig.GetEnv("DB_USER", "postgres"),
		Password: appConfig.GetEnv("DB_PASSWORD", "postgres"),
		DBName:   appConfig.GetEnv("DB_NAME", "prtracker"),
		Port:     appConfig.GetEnv("DB_PORT", "5432"),
		SSLMode:  appConfig.GetEnv("DB_SSLMODE", "disable"),
		TimeZone: appConfig.GetEnv("DB_TIMEZONE", "UTC"),
	}
}

// DefaultSQLitePath returns prtracker.db under the user config directory.
func DefaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prtracker.db"
	}
	return filepath.Join(dir, "prtracker", "prtracker.db")
}

// Validate validates storage configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Host == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s (must be: sqlite, postgres, memory)", c.Driver)
	}
	return nil
}

// IsMemory reports whether the store lives only in process memory.
func (c Config) IsMemory() bool {
	return c.Driver == DriverMemory || (c.Driver == DriverSQLite && c.Path == MemoryPath)
}

// BuildDSN constructs the driver-specific DSN.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
	}
	if cfg.Path == MemoryPath {
		return MemoryPath
	}
	// Several contexts may open the same file.
	return cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// SanitizeError removes the password from connection errors.
func SanitizeError(err error, cfg Config) error {
	if err == nil {
		return nil
	}
	errMsg := err.Error()
	if cfg.Driver == DriverPostgres && cfg.Password != "" {
		errMsg = strings.ReplaceAll(errMsg, cfg.Password, "***")
	}
	return fmt.Errorf("failed to open %s store: %s", cfg.Driver, errMsg)
}

// LoadRetryConfigFromEnv loads open-retry configuration for the driver.
func LoadRetryConfigFromEnv(driver string) retry.Config {
	cfg := retry.SQLiteConfig()
	if driver == DriverPostgres {
		cfg = retry.PostgresConfig()
	}
	cfg.MaxAttempts = appConfig.GetEnvInt("DB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = appConfig.GetEnvDuration("DB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = appConfig.GetEnvDuration("DB_RETRY_MAX_DELAY", cfg.MaxDelay)
	return cfg
}
