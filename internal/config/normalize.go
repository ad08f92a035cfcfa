package config

import (
	"fmt"
	"os"
	"strings"

	"lipsync/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAvatar(); err != nil {
		return err
	}
	c.normalizePhonemizer()
	c.normalizeTimeline()
	if err := c.normalizeVideo(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AtlasDir) == "" {
		c.Paths.AtlasDir = defaultCacheDir("atlas")
	}
	if c.Paths.AtlasDir, err = expandPath(c.Paths.AtlasDir); err != nil {
		return fmt.Errorf("paths.atlas_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAvatar() error {
	c.Avatar.PortraitPath = strings.TrimSpace(c.Avatar.PortraitPath)
	if c.Avatar.PortraitPath == "" {
		if value, ok := os.LookupEnv(portraitEnvVar); ok {
			c.Avatar.PortraitPath = strings.TrimSpace(value)
		}
	}
	if c.Avatar.PortraitPath != "" {
		var err error
		if c.Avatar.PortraitPath, err = expandPath(c.Avatar.PortraitPath); err != nil {
			return fmt.Errorf("avatar.portrait_path: %w", err)
		}
	}
	if c.Avatar.MaxDimension <= 0 {
		c.Avatar.MaxDimension = defaultMaxDimension
	}
	if c.Avatar.PlaceholderSize <= 0 {
		c.Avatar.PlaceholderSize = defaultPlaceholderSize
	}
	return nil
}

func (c *Config) normalizePhonemizer() {
	c.Phonemizer.Binary = strings.TrimSpace(c.Phonemizer.Binary)
	if c.Phonemizer.Binary == "" {
		c.Phonemizer.Binary = defaultPhonemizerBinary
	}
	fallbacks := make([]string, 0, len(c.Phonemizer.FallbackBinaries))
	seen := map[string]struct{}{c.Phonemizer.Binary: {}}
	for _, bin := range c.Phonemizer.FallbackBinaries {
		bin = strings.TrimSpace(bin)
		if bin == "" {
			continue
		}
		if _, exists := seen[bin]; exists {
			continue
		}
		seen[bin] = struct{}{}
		fallbacks = append(fallbacks, bin)
	}
	c.Phonemizer.FallbackBinaries = fallbacks
	c.Phonemizer.Language = language.Normalize(c.Phonemizer.Language)
	if c.Phonemizer.Language == "" {
		c.Phonemizer.Language = defaultPhonemizerLanguage
	}
	if c.Phonemizer.TimeoutSeconds <= 0 {
		c.Phonemizer.TimeoutSeconds = defaultPhonemizerTimeout
	}
}

func (c *Config) normalizeTimeline() {
	c.Timeline.OnTranscriptionFailure = strings.ToLower(strings.TrimSpace(c.Timeline.OnTranscriptionFailure))
	if c.Timeline.OnTranscriptionFailure == "" {
		c.Timeline.OnTranscriptionFailure = defaultTranscriptionPolicy
	}
}

func (c *Config) normalizeVideo() error {
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	c.Video.VideoCodec = strings.TrimSpace(c.Video.VideoCodec)
	if c.Video.VideoCodec == "" {
		c.Video.VideoCodec = defaultVideoCodec
	}
	c.Video.AudioCodec = strings.TrimSpace(c.Video.AudioCodec)
	if c.Video.AudioCodec == "" {
		c.Video.AudioCodec = defaultAudioCodec
	}
	c.Video.PixelFormat = strings.TrimSpace(c.Video.PixelFormat)
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = defaultPixelFormat
	}
	if strings.TrimSpace(c.Video.ArchiveDir) == "" {
		c.Video.ArchiveDir = defaultCacheDir("archive")
	}
	var err error
	if c.Video.ArchiveDir, err = expandPath(c.Video.ArchiveDir); err != nil {
		return fmt.Errorf("video.archive_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.TextfilePath = strings.TrimSpace(c.Metrics.TextfilePath)
	if c.Metrics.TextfilePath == "" {
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
