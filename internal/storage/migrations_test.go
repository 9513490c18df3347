package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	store := createTestStorage(t)

	objects := []struct {
		kind string
		name string
	}{
		{"table", "training_runs"},
		{"table", "run_metrics"},
		{"table", "customer_labels"},
		{"index", "idx_training_runs_started"},
		{"index", "idx_customer_labels_risk"},
	}
	for _, obj := range objects {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type = ? AND name = ?
		`, obj.kind, obj.name).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s %s: %v", obj.kind, obj.name, err)
		}
		if count != 1 {
			t.Errorf("%s %s was not created", obj.kind, obj.name)
		}
	}
}

func TestMigrate_ResumesFromVersionOne(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	// Apply only the first migration, as an older binary would have.
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	if err := migrations[0].Up(tx); err != nil {
		t.Fatalf("Failed to apply v1: %v", err)
	}
	if _, err := tx.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("Failed to set version: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, ExpectedSchemaVersion)
	}

	run := testRun("resumed", time.Now().UTC())
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() after upgrade error = %v", err)
	}
	labels := []model.CustomerLabel{{RFM: model.RFM{CustomerID: "c1", Recency: 3, Frequency: 4, Monetary: 900}}}
	if err := store.SaveLabels(ctx, run.ID, labels); err != nil {
		t.Errorf("SaveLabels() after upgrade error = %v", err)
	}
}
