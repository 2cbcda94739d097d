// Package migrate applies the embedded schema migrations.
package migrate

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	appDatabase "github.com/festy23/prtracker/internal/database/database"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies pending migrations for the dialect of db.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	var (
		driver database.Driver
		name   string
	)
	switch dialect := appDatabase.Dialect(db); dialect {
	case "sqlite":
		name = "sqlite3"
		driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	case "postgres":
		name = "postgres"
		driver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s driver: %w", name, err)
	}

	dir := "migrations/sqlite"
	if name == "postgres" {
		dir = "migrations/postgres"
	}
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	// m.Close would close sqlDB through the driver, so the instance is left open.
	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
