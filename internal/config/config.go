package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	AtlasDir string `toml:"atlas_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Avatar describes where the base face comes from.
type Avatar struct {
	PortraitPath    string `toml:"portrait_path"`
	MaxDimension    int    `toml:"max_dimension"`
	PlaceholderSize int    `toml:"placeholder_size"`
}

// Phonemizer contains settings for the IPA transcription tool.
type Phonemizer struct {
	Binary           string   `toml:"binary"`
	FallbackBinaries []string `toml:"fallback_binaries"`
	Language         string   `toml:"language"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
}

// Timeline controls how the timeline builder treats transcription failures.
type Timeline struct {
	// OnTranscriptionFailure is "rest" (substitute one rest event) or "abort".
	OnTranscriptionFailure string `toml:"on_transcription_failure"`
}

// Video contains frame rate and encoder settings.
type Video struct {
	FPS           int    `toml:"fps"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	PixelFormat   string `toml:"pixel_format"`
	ArchiveAV1    bool   `toml:"archive_av1"`
	ArchiveDir    string `toml:"archive_dir"`
	// MaxSeconds bounds the timeline length a render will sequence.
	MaxSeconds float64 `toml:"max_seconds"`
	// VerifyOutput inspects every assembled video with ffprobe.
	VerifyOutput bool `toml:"verify_output"`
}

// Metrics contains the optional Prometheus textfile export target.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lipsync.
//
// Configuration sections by subsystem:
//   - Paths: work, atlas, log and state directories
//   - Avatar: portrait source and placeholder sizing
//   - Phonemizer: espeak-ng binary, fallbacks and language
//   - Timeline: transcription failure policy
//   - Video: frame rate, ffmpeg settings and optional AV1 archive
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Avatar     Avatar     `toml:"avatar"`
	Phonemizer Phonemizer `toml:"phonemizer"`
	Timeline   Timeline   `toml:"timeline"`
	Video      Video      `toml:"video"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lipsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a render needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.AtlasDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Video.ArchiveAV1 && strings.TrimSpace(c.Video.ArchiveDir) != "" {
		if err := os.MkdirAll(c.Video.ArchiveDir, 0o755); err != nil {
			return fmt.Errorf("create archive directory %q: %w", c.Video.ArchiveDir, err)
		}
	}
	return nil
}

// PhonemizerTimeout returns the per-call transcription timeout.
func (c *Config) PhonemizerTimeout() time.Duration {
	return time.Duration(c.Phonemizer.TimeoutSeconds) * time.Second
}

// PhonemizerBinaries returns the primary binary followed by its fallbacks.
func (c *Config) PhonemizerBinaries() []string {
	out := make([]string, 0, 1+len(c.Phonemizer.FallbackBinaries))
	out = append(out, c.Phonemizer.Binary)
	out = append(out, c.Phonemizer.FallbackBinaries...)
	return out
}

// RunsDBPath returns the location of the render history database.
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir(sub string) string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "lipsync", sub)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/lipsync/" + sub
	}
	return filepath.Join(home, ".cache", "lipsync", sub)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
