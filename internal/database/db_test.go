package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/news-composer/internal/config"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{DriverPostgres, "SELECT * FROM articles WHERE id = ? AND status = ?", "SELECT * FROM articles WHERE id = $1 AND status = $2"},
		{DriverSQLite, "SELECT * FROM articles WHERE id = ?", "SELECT * FROM articles WHERE id = ?"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		db := &DB{driver: tt.driver}
		if got := db.Rebind(tt.query); got != tt.want {
			t.Errorf("Rebind(%q) on %s = %q, want %q", tt.query, tt.driver, got, tt.want)
		}
	}
}

func TestSQLiteMigrations(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: DriverSQLite, SQLitePath: ":memory:"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations should be a no-op: %v", err)
	}

	var count int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		t.Fatalf("articles table missing: %v", err)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM articles").Scan(&count); err == nil {
		t.Error("expected articles table to be dropped")
	}
}
