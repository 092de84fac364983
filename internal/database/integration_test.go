package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test_integration.db")

	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Migrations are recorded, so a second run is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "puzzle_cache").Scan(&name)
	if err != nil {
		t.Errorf("Table puzzle_cache not found: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 recorded migrations, got %d", count)
	}
}

// TestRunMigrationsFSOrdersFiles tests that migrations apply in filename order
func TestRunMigrationsFSOrdersFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_order.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"sqlite/002_insert.sql": {Data: []byte("INSERT INTO things (name) VALUES ('a');")},
		"sqlite/001_create.sql": {Data: []byte("CREATE TABLE things (name TEXT);")},
		"postgres/001_x.sql":    {Data: []byte("this is not for sqlite")},
	}

	ctx := context.Background()
	if err := db.RunMigrationsFS(ctx, fsys); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM things").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}

func TestInitializeWithBadPath(t *testing.T) {
	_, err := Initialize(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	if err == nil {
		t.Fatal("expected error for unreachable database path")
	}
}
