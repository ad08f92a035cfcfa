package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lipsync/internal/config"
	"lipsync/internal/testsupport"
)

const (
	ffmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
for last; do :; done
: > "$last"
`
	espeakStub = "#!/bin/sh\necho 'ˈola'\n"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("LIPSYNC_PORTRAIT", "")
	defaults := []testsupport.ConfigOption{
		testsupport.WithScriptedBinary("ffmpeg", ffmpegStub),
		testsupport.WithScriptedBinary("ffprobe", "#!/bin/sh\nexit 0\n"),
		testsupport.WithScriptedBinary("espeak-ng", espeakStub),
	}
	cfg := testsupport.NewConfig(t, append(defaults, opts...)...)
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(homeDir, ".config", "lipsync", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nwork_dir = %q\natlas_dir = %q\nlog_dir = %q\nstate_dir = %q\n\n",
		cfg.Paths.WorkDir, cfg.Paths.AtlasDir, cfg.Paths.LogDir, cfg.Paths.StateDir)
	fmt.Fprintf(&b, "[avatar]\nportrait_path = %q\nplaceholder_size = %d\n\n",
		cfg.Avatar.PortraitPath, cfg.Avatar.PlaceholderSize)
	b.WriteString("[phonemizer]\nbinary = \"espeak-ng\"\nfallback_binaries = []\nlanguage = \"es\"\n\n")
	fmt.Fprintf(&b, "[video]\nfps = %d\narchive_dir = %q\n\n", cfg.Video.FPS, cfg.Video.ArchiveDir)
	fmt.Fprintf(&b, "[metrics]\ntextfile_path = %q\n\n", filepath.Join(testsupport.BaseDir(cfg), "metrics", "lipsync.prom"))
	b.WriteString("[logging]\nlevel = \"error\"\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeSegments(t *testing.T, dir string) string {
	t.Helper()
	return testsupport.WriteFile(t, filepath.Join(dir, "greeting.json"), `[{"start": 0, "end": 0.3, "text": "Hola"}]`)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
