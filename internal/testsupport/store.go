package testsupport

import (
	"context"
	"testing"

	"lipsync/internal/config"
	"lipsync/internal/runs"
)

// MustOpenRuns opens the run history store for tests and registers cleanup.
func MustOpenRuns(t testing.TB, cfg *config.Config) *runs.Store {
	t.Helper()

	store, err := runs.Open(cfg.RunsDBPath())
	if err != nil {
		t.Fatalf("runs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun records a running render for tests using the provided store.
func BeginRun(t testing.TB, store *runs.Store, run runs.Run) *runs.Run {
	t.Helper()

	started, err := store.Begin(context.Background(), run)
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return started
}
