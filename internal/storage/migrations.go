package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS training_runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					snapshot DATETIME NOT NULL,
					data_path TEXT NOT NULL DEFAULT '',
					pipeline_path TEXT NOT NULL,
					model_path TEXT NOT NULL,
					row_count INTEGER NOT NULL,
					customers INTEGER NOT NULL,
					high_risk INTEGER NOT NULL,
					risk_cluster INTEGER NOT NULL,
					best_iteration INTEGER NOT NULL,
					params TEXT NOT NULL DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_training_runs_started ON training_runs(started_at)`,

				`CREATE TABLE IF NOT EXISTS run_metrics (
					run_id TEXT NOT NULL,
					name TEXT NOT NULL,
					value REAL NOT NULL,
					PRIMARY KEY (run_id, name),
					FOREIGN KEY (run_id) REFERENCES training_runs(id) ON DELETE CASCADE
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add per-customer labels",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS customer_labels (
					run_id TEXT NOT NULL,
					customer_id TEXT NOT NULL,
					recency INTEGER NOT NULL,
					frequency INTEGER NOT NULL,
					monetary REAL NOT NULL,
					cluster INTEGER NOT NULL,
					is_high_risk INTEGER NOT NULL,
					PRIMARY KEY (run_id, customer_id),
					FOREIGN KEY (run_id) REFERENCES training_runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_customer_labels_risk ON customer_labels(run_id, is_high_risk)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
