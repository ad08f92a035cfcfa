package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lipsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("LIPSYNC_PORTRAIT", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "lipsync", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantAtlas := filepath.Join(tempHome, ".cache", "lipsync", "atlas")
	if cfg.Paths.AtlasDir != wantAtlas {
		t.Fatalf("unexpected atlas dir: got %q want %q", cfg.Paths.AtlasDir, wantAtlas)
	}
	if cfg.Video.FPS != 24 {
		t.Fatalf("expected default fps 24, got %d", cfg.Video.FPS)
	}
	if cfg.Phonemizer.Binary != "espeak-ng" {
		t.Fatalf("unexpected phonemizer binary %q", cfg.Phonemizer.Binary)
	}
	if got := cfg.PhonemizerBinaries(); len(got) != 2 || got[1] != "espeak" {
		t.Fatalf("unexpected phonemizer chain %v", got)
	}
	if cfg.Timeline.OnTranscriptionFailure != "rest" {
		t.Fatalf("expected rest policy by default, got %q", cfg.Timeline.OnTranscriptionFailure)
	}
	if cfg.Avatar.PortraitPath != "" {
		t.Fatalf("expected no portrait by default, got %q", cfg.Avatar.PortraitPath)
	}
	if cfg.RunsDBPath() != filepath.Join(tempHome, ".local", "share", "lipsync", "state", "runs.db") {
		t.Fatalf("unexpected runs db path %q", cfg.RunsDBPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.AtlasDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lipsync.toml")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Phonemizer struct {
			Language         string   `toml:"language"`
			FallbackBinaries []string `toml:"fallback_binaries"`
		} `toml:"phonemizer"`
		Timeline struct {
			OnTranscriptionFailure string `toml:"on_transcription_failure"`
		} `toml:"timeline"`
		Video struct {
			FPS int `toml:"fps"`
		} `toml:"video"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Phonemizer.Language = "EN_us"
	custom.Phonemizer.FallbackBinaries = []string{"espeak-ng", " espeak ", "", "espeak"}
	custom.Timeline.OnTranscriptionFailure = " Abort "
	custom.Video.FPS = 30
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "work") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
	if cfg.Phonemizer.Language != "en-US" {
		t.Fatalf("expected canonical language tag, got %q", cfg.Phonemizer.Language)
	}
	if len(cfg.Phonemizer.FallbackBinaries) != 1 || cfg.Phonemizer.FallbackBinaries[0] != "espeak" {
		t.Fatalf("expected deduplicated fallbacks, got %v", cfg.Phonemizer.FallbackBinaries)
	}
	if cfg.Timeline.OnTranscriptionFailure != "abort" {
		t.Fatalf("expected abort policy, got %q", cfg.Timeline.OnTranscriptionFailure)
	}
	if cfg.Video.FPS != 30 {
		t.Fatalf("expected fps 30, got %d", cfg.Video.FPS)
	}
}

func TestPortraitEnvFallback(t *testing.T) {
	tempDir := t.TempDir()
	portrait := filepath.Join(tempDir, "face.png")
	t.Setenv("LIPSYNC_PORTRAIT", portrait)

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Avatar.PortraitPath != portrait {
		t.Fatalf("expected portrait from env, got %q", cfg.Avatar.PortraitPath)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "on_transcription_failure") {
		t.Fatalf("sample config missing timeline policy: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Video.FPS != 24 {
		t.Fatalf("expected sample fps 24, got %d", cfg.Video.FPS)
	}
	if cfg.Video.MaxSeconds != 14400 {
		t.Fatalf("expected sample max_seconds 14400, got %v", cfg.Video.MaxSeconds)
	}
	if !strings.Contains(cfg.Paths.WorkDir, "lipsync") {
		t.Fatalf("expected work dir to contain lipsync, got %q", cfg.Paths.WorkDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero fps", func(c *config.Config) { c.Video.FPS = 0 }},
		{"excessive fps", func(c *config.Config) { c.Video.FPS = 1000 }},
		{"zero max seconds", func(c *config.Config) { c.Video.MaxSeconds = 0 }},
		{"unknown policy", func(c *config.Config) { c.Timeline.OnTranscriptionFailure = "retry" }},
		{"bad language", func(c *config.Config) { c.Phonemizer.Language = "not a tag!" }},
		{"zero timeout", func(c *config.Config) { c.Phonemizer.TimeoutSeconds = 0 }},
		{"zero max dimension", func(c *config.Config) { c.Avatar.MaxDimension = 0 }},
		{"missing work dir", func(c *config.Config) { c.Paths.WorkDir = "" }},
		{"archive without dir", func(c *config.Config) { c.Video.ArchiveAV1 = true; c.Video.ArchiveDir = "" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
