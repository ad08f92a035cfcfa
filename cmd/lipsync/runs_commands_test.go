package main

import (
	"testing"
	"time"

	"lipsync/internal/runs"
	"lipsync/internal/testsupport"
)

func TestRunsListAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No renders recorded")

	store := testsupport.MustOpenRuns(t, env.cfg)
	base := time.Now().Add(-time.Hour).UTC()
	for i, id := range []string{"aaaa1111", "bbbb2222", "cccc3333"} {
		run := testsupport.BeginRun(t, store, runs.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)})
		if err := store.Finish(t.Context(), run.ID, runs.Outcome{Status: runs.StatusSucceeded, FrameCount: 10 * (i + 1)}); err != nil {
			t.Fatalf("finish: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"runs", "list", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "cccc3333")
	requireContains(t, out, "bbbb2222")

	out, _, err = runCLI(t, []string{"runs", "prune", "--keep", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("runs prune: %v", err)
	}
	requireContains(t, out, "Removed 2 renders")

	if _, _, err := runCLI(t, []string{"runs", "show", "aaaa"}, env.configPath); err == nil {
		t.Fatal("expected pruned run to be gone")
	}
	out, _, err = runCLI(t, []string{"runs", "show", "cccc"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "cccc3333")
}
