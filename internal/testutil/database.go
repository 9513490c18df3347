// Package testutil provides shared test setup: an in-memory run registry and
// artifacts trained on a synthetic transaction history.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/storage"
)

// SetupTestDB creates a new in-memory, migrated run registry.
// It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	run, err := training.Record(ctx, db, outcome, paths)
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	// Create in-memory SQLite storage
	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
