package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"lipsync/internal/testsupport"
)

func TestAtlasBuildWithPortrait(t *testing.T) {
	env := setupCLITestEnv(t)
	portrait := testsupport.WritePortrait(t, filepath.Join(env.baseDir, "face.png"), 120, 160)

	out, _, err := runCLI(t, []string{"atlas", "build", "--portrait", portrait, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("atlas build: %v", err)
	}
	var view atlasView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode atlas: %v\n%s", err, out)
	}
	if view.Tier != "portrait" {
		t.Fatalf("expected portrait tier, got %q", view.Tier)
	}
	if len(view.Images) != 9 {
		t.Fatalf("expected 9 images, got %d", len(view.Images))
	}

	out, _, err = runCLI(t, []string{"atlas", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("atlas show: %v", err)
	}
	requireContains(t, out, "avatar_X.png")
	requireContains(t, out, "closed lips")
}

func TestAtlasShowWithoutAtlas(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"atlas", "show"}, env.configPath); err == nil {
		t.Fatal("expected error when atlas has not been built")
	}
}
