package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/adpilot/adpilot/internal/store"
)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// SeedExperiment creates an experiment and sets its counts.
func SeedExperiment(t *testing.T, s *store.SQLiteStore, name string, counts store.Counts) *store.Experiment {
	t.Helper()

	ctx := context.Background()
	if _, err := s.CreateExperiment(ctx, name, "Control", "Variant", ""); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}

	exp, err := s.SetCounts(ctx, name, counts)
	if err != nil {
		t.Fatalf("failed to set counts: %v", err)
	}
	return exp
}
