package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAvatar(); err != nil {
		return err
	}
	if err := c.validatePhonemizer(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AtlasDir) == "" {
		return errors.New("paths.atlas_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateAvatar() error {
	return ensurePositiveMap(map[string]int{
		"avatar.max_dimension":    c.Avatar.MaxDimension,
		"avatar.placeholder_size": c.Avatar.PlaceholderSize,
	})
}

func (c *Config) validatePhonemizer() error {
	if _, err := language.Parse(c.Phonemizer.Language); err != nil {
		return fmt.Errorf("phonemizer.language %q is not a valid language tag: %w", c.Phonemizer.Language, err)
	}
	if c.Phonemizer.TimeoutSeconds <= 0 {
		return errors.New("phonemizer.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTimeline() error {
	switch c.Timeline.OnTranscriptionFailure {
	case transcriptionPolicyRest, transcriptionPolicyAbort:
		return nil
	default:
		return fmt.Errorf("timeline.on_transcription_failure must be %q or %q, got %q",
			transcriptionPolicyRest, transcriptionPolicyAbort, c.Timeline.OnTranscriptionFailure)
	}
}

func (c *Config) validateVideo() error {
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Video.FPS > maxFPS {
		return fmt.Errorf("video.fps must be at most %d", maxFPS)
	}
	if c.Video.MaxSeconds <= 0 {
		return errors.New("video.max_seconds must be positive")
	}
	if c.Video.ArchiveAV1 && strings.TrimSpace(c.Video.ArchiveDir) == "" {
		return errors.New("video.archive_dir must be set when video.archive_av1 is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
