package config

const (
	defaultConfigPath          = "~/.config/lipsync/config.toml"
	defaultWorkDir             = "~/.local/share/lipsync/work"
	defaultLogDir              = "~/.local/share/lipsync/logs"
	defaultStateDir            = "~/.local/share/lipsync/state"
	defaultMaxDimension        = 800
	defaultPlaceholderSize     = 400
	defaultPhonemizerBinary    = "espeak-ng"
	defaultPhonemizerFallback  = "espeak"
	defaultPhonemizerLanguage  = "es"
	defaultPhonemizerTimeout   = 30
	defaultTranscriptionPolicy = "rest"
	defaultFPS                 = 24
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultVideoCodec          = "libx264"
	defaultAudioCodec          = "aac"
	defaultPixelFormat         = "yuv420p"
	defaultMaxSeconds          = 4 * 60 * 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	maxFPS                     = 240
	portraitEnvVar             = "LIPSYNC_PORTRAIT"
	transcriptionPolicyRest    = "rest"
	transcriptionPolicyAbort   = "abort"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			AtlasDir: defaultCacheDir("atlas"),
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Avatar: Avatar{
			MaxDimension:    defaultMaxDimension,
			PlaceholderSize: defaultPlaceholderSize,
		},
		Phonemizer: Phonemizer{
			Binary:           defaultPhonemizerBinary,
			FallbackBinaries: []string{defaultPhonemizerFallback},
			Language:         defaultPhonemizerLanguage,
			TimeoutSeconds:   defaultPhonemizerTimeout,
		},
		Timeline: Timeline{
			OnTranscriptionFailure: defaultTranscriptionPolicy,
		},
		Video: Video{
			FPS:           defaultFPS,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			PixelFormat:   defaultPixelFormat,
			ArchiveDir:    defaultCacheDir("archive"),
			MaxSeconds:    defaultMaxSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
