package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NewSQLiteStore opens (or creates) the database at dbPath and applies the schema.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("SQLite log store initialized", zap.String("db_path", dbPath))
	return newSQLStore(db, logger), nil
}

func migrateSQLite(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		sophistication TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_activities_status ON activities(status);
	CREATE INDEX IF NOT EXISTS idx_activities_risk_level ON activities(risk_level);

	CREATE TABLE IF NOT EXISTS alert_logs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		message TEXT NOT NULL,
		method TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		activity_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_alert_logs_activity_id ON alert_logs(activity_id);
	`

	_, err := db.Exec(schema)
	return err
}
