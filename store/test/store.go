package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/internal/version"
	"github.com/hrygo/converse/store"
	"github.com/hrygo/converse/store/db"
)

// NewTestingStore returns a migrated store backed by a fresh SQLite database
// in a per-test temporary directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	testStore := store.New(dbDriver, profile)
	if err := testStore.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if err := testStore.Close(); err != nil {
			t.Logf("failed to close db: %v", err)
		}
	})
	return testStore
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	mode := "dev"
	return &profile.Profile{
		Mode:    mode,
		Data:    dir,
		DSN:     filepath.Join(dir, fmt.Sprintf("converse_%s.db", mode)),
		Driver:  "sqlite",
		Version: version.GetCurrentVersion(mode),
	}
}
