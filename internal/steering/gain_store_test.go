package steering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/database"
	_ "github.com/nerrad567/parkrunner-core/migrations"
)

func TestSQLiteGainStore(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "gains.db"), BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	store := NewSQLiteGainStore(db.DB)
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoGains) {
		t.Fatalf("Load() on empty store error = %v, want ErrNoGains", err)
	}

	for _, g := range []Gains{{P: 1, I: 0.5, D: 0.1}, {P: 1.25, I: 0.4, D: 0.05}} {
		if err := store.Save(ctx, g); err != nil {
			t.Fatalf("Save(%+v) error = %v", g, err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != g {
			t.Errorf("Load() = %+v, want %+v", got, g)
		}
	}
}
