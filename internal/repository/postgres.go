package repository

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsTable = "safebrowse_schema_migrations"

// NewPostgresStore connects to dsn, runs pending migrations and returns the store.
func NewPostgresStore(dsn string, logger *zap.Logger) (Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info("Successfully connected to the database")

	if err := migratePostgres(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return newSQLStore(db, logger), nil
}

func migratePostgres(db *sqlx.DB, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// The migrator is not closed: that would close db as well.
	m, err := migrate.NewWithInstance("iofs", source, "safebrowse", driver)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("couldn't run database migration: %w", err)
	}

	logger.Info("Database migration was run successfully")
	return nil
}

// NewMigrator returns a standalone migrator for dsn. Callers must Close it.
func NewMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, withMigrationsTable(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// withMigrationsTable points the URL-configured postgres driver at the same
// version table the embedded migrator uses.
func withMigrationsTable(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "x-migrations-table=" + migrationsTable
}
