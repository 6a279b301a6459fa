package main

import (
	"errors"
	"fmt"

	"safebrowse/internal/config"
	"safebrowse/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var (
	migrateDSN     string
	migrateDown    bool
	migrateVersion bool
	migrateSteps   int
	migrateForce   int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect the Postgres log store schema",
	RunE:  runMigrate,
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateDSN, "dsn", "", "Database connection string (defaults to store.url)")
	f.BoolVar(&migrateDown, "down", false, "Run all down migrations")
	f.BoolVar(&migrateVersion, "version", false, "Print current migration version")
	f.IntVar(&migrateSteps, "steps", 0, "Number of migrations (positive=up, negative=down)")
	f.IntVar(&migrateForce, "force", -1, "Force set version (use with caution)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn := migrateDSN
	if dsn == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Store.Driver != config.StorePostgres {
			return fmt.Errorf("store driver is %q; sqlite migrates itself on start", cfg.Store.Driver)
		}
		dsn = cfg.Store.URL
	}

	m, err := repository.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	out := cmd.OutOrStdout()
	switch {
	case migrateVersion:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Fprintf(out, "version: %d, dirty: %v\n", v, dirty)
	case cmd.Flags().Changed("force"):
		if err := m.Force(migrateForce); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		fmt.Fprintf(out, "forced to version %d\n", migrateForce)
	case migrateDown:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run down migrations: %w", err)
		}
		fmt.Fprintln(out, "migrations reverted successfully")
	case migrateSteps != 0:
		if err := m.Steps(migrateSteps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintf(out, "applied %d migration steps\n", migrateSteps)
	default:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Fprintln(out, "migrations applied successfully")
	}
	return nil
}
