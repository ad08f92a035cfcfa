package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lipsync/internal/config"
	"lipsync/internal/fileutil"
	"lipsync/internal/frames"
	"lipsync/internal/logging"
	"lipsync/internal/media/ffprobe"
	"lipsync/internal/services"
)

const (
	stageName    = "assemble"
	framePattern = "frame_%06d.png"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

type audioProber func(ctx context.Context, binary, path string) (float64, error)

type outputInspector func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Status summarizes what Assemble did.
type Status string

const (
	StatusRendered        Status = "rendered"
	StatusNothingToRender Status = "nothing_to_render"
)

// Settings holds the encoder binaries and codec choices.
type Settings struct {
	FFmpegBinary  string
	FFprobeBinary string
	VideoCodec    string
	AudioCodec    string
	PixelFormat   string
}

// SettingsFromConfig extracts encoder settings from the video section.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		FFmpegBinary:  cfg.Video.FFmpegBinary,
		FFprobeBinary: cfg.Video.FFprobeBinary,
		VideoCodec:    cfg.Video.VideoCodec,
		AudioCodec:    cfg.Video.AudioCodec,
		PixelFormat:   cfg.Video.PixelFormat,
	}
}

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.FFmpegBinary) == "" {
		s.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(s.FFprobeBinary) == "" {
		s.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(s.VideoCodec) == "" {
		s.VideoCodec = "libx264"
	}
	if strings.TrimSpace(s.AudioCodec) == "" {
		s.AudioCodec = "aac"
	}
	if strings.TrimSpace(s.PixelFormat) == "" {
		s.PixelFormat = "yuv420p"
	}
	return s
}

// Request describes one assembly.
type Request struct {
	Frames     []frames.Ref
	FPS        int
	AudioPath  string // optional; a missing file yields a silent video
	OutputPath string
	WorkDir    string // parent for the private frame directory; os.TempDir when empty
	// Verify inspects the finished file and fails when its video stream
	// does not match the requested frames.
	Verify bool
}

// Result reports the outcome of an assembly.
type Result struct {
	Status       Status  `json:"status"`
	OutputPath   string  `json:"output_path,omitempty"`
	FrameCount   int     `json:"frame_count"`
	FPS          int     `json:"fps"`
	VideoSeconds float64 `json:"video_seconds"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
	AudioTrimmed bool    `json:"audio_trimmed"`
	HasAudio     bool    `json:"has_audio"`
	Verified     bool    `json:"verified,omitempty"`
}

// Assembler muxes frame sequences and audio with ffmpeg.
type Assembler struct {
	settings Settings
	logger   *slog.Logger
	run      commandRunner
	probe    audioProber
	inspect  outputInspector
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(a *Assembler) {
		if r != nil {
			a.run = r
		}
	}
}

// WithAudioProber overrides audio duration probing (primarily for tests).
func WithAudioProber(p func(ctx context.Context, binary, path string) (float64, error)) Option {
	return func(a *Assembler) {
		if p != nil {
			a.probe = p
		}
	}
}

// WithOutputInspector overrides ffprobe inspection of assembled files
// (primarily for tests).
func WithOutputInspector(i func(ctx context.Context, binary, path string) (ffprobe.Result, error)) Option {
	return func(a *Assembler) {
		if i != nil {
			a.inspect = i
		}
	}
}

// NewAssembler constructs an assembler.
func NewAssembler(settings Settings, logger *slog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		settings: settings.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "assembler"),
		run:      defaultCommandRunner,
		probe:    probeAudioDuration,
		inspect:  ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble writes req.Frames (and audio, when present) to req.OutputPath.
// An empty frame list is not an error: nothing is written and the result
// reports StatusNothingToRender.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Result, error) {
	if a == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "init", "assembler not initialized", nil)
	}
	if req.FPS <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate", fmt.Sprintf("fps must be positive, got %d", req.FPS), nil)
	}
	logger := logging.WithContext(ctx, a.logger)
	if len(req.Frames) == 0 {
		logger.Info("nothing to render",
			logging.String(logging.FieldEventType, "nothing_to_render"),
			logging.String("output_path", req.OutputPath),
		)
		return Result{Status: StatusNothingToRender, FPS: req.FPS}, nil
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate", "output path is required", nil)
	}

	result := Result{
		Status:       StatusRendered,
		OutputPath:   req.OutputPath,
		FrameCount:   len(req.Frames),
		FPS:          req.FPS,
		VideoSeconds: float64(len(req.Frames)) / float64(req.FPS),
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "prepare output", "create output directory", err)
	}

	workDir, err := os.MkdirTemp(req.WorkDir, "assemble-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "prepare frames", "create work directory", err)
	}
	defer func() {
		if removeErr := os.RemoveAll(workDir); removeErr != nil {
			logging.WarnWithContext(logger, "failed to remove frame work directory", "cleanup_failed",
				logging.Error(removeErr),
				logging.String("work_dir", workDir),
			)
		}
	}()

	copied, err := stageFrames(req.Frames, workDir)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("frames staged",
		logging.Int("frame_count", len(req.Frames)),
		logging.Int("copied", copied),
		logging.String("work_dir", workDir),
	)

	audioPath := strings.TrimSpace(req.AudioPath)
	if audioPath != "" {
		if _, statErr := os.Stat(audioPath); statErr != nil {
			logging.WarnWithContext(logger, "audio track unavailable; rendering silent video", "audio_missing",
				logging.String("audio_path", audioPath),
				logging.Error(statErr),
				logging.String(logging.FieldImpact, "output has no audio"),
			)
			audioPath = ""
		}
	}
	if audioPath != "" {
		seconds, probeErr := a.probe(ctx, a.settings.FFprobeBinary, audioPath)
		if probeErr != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, stageName, "ffprobe", "probe audio duration", probeErr)
		}
		result.HasAudio = true
		result.AudioSeconds = seconds
		result.AudioTrimmed = seconds > result.VideoSeconds
	}

	dir := filepath.Dir(req.OutputPath)
	tmpPath := filepath.Join(dir, ".tmp-"+filepath.Base(req.OutputPath))
	args := a.buildArgs(filepath.Join(workDir, framePattern), req.FPS, audioPath, result, tmpPath)

	logger.Debug("executing ffmpeg",
		logging.String("output_path", req.OutputPath),
		logging.Bool("has_audio", result.HasAudio),
		logging.Bool("audio_trimmed", result.AudioTrimmed),
		logging.Any("args", args),
	)
	if err := a.run(ctx, a.settings.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrEncoding, stageName, "ffmpeg", "encode video", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return Result{}, services.Wrap(services.ErrEncoding, stageName, "ffmpeg", "ffmpeg did not produce output file", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrEncoding, stageName, "finalize", "move output into place", err)
	}
	if req.Verify {
		if err := a.verifyOutput(ctx, logger, result); err != nil {
			return Result{}, err
		}
		result.Verified = true
	}

	logger.Info("video assembled",
		logging.String(logging.FieldEventType, "video_assembled"),
		logging.String("output_path", req.OutputPath),
		logging.Int("frame_count", result.FrameCount),
		logging.Float64("video_seconds", result.VideoSeconds),
		logging.Float64("audio_seconds", result.AudioSeconds),
		logging.Bool("audio_trimmed", result.AudioTrimmed),
	)
	return result, nil
}

// verifyOutput checks the encoded file has one video stream with the
// expected frame count and rate, plus an audio stream when one was muxed.
// ffprobe omits nb_frames for some containers; a zero count is not a mismatch.
func (a *Assembler) verifyOutput(ctx context.Context, logger *slog.Logger, want Result) error {
	inspected, err := a.inspect(ctx, a.settings.FFprobeBinary, want.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "verify", "inspect output", err)
	}

	var problems []string
	stream, ok := inspected.VideoStream()
	if count := inspected.VideoStreamCount(); !ok || count != 1 {
		problems = append(problems, fmt.Sprintf("expected 1 video stream, found %d", count))
	} else {
		if got := stream.FrameCount(); got != 0 && got != want.FrameCount {
			problems = append(problems, fmt.Sprintf("expected %d frames, found %d", want.FrameCount, got))
		}
		if rate := stream.FrameRate(); rate > 0 && math.Abs(rate-float64(want.FPS)) > 0.01 {
			problems = append(problems, fmt.Sprintf("expected %d fps, found %g", want.FPS, rate))
		}
	}
	if want.HasAudio && inspected.AudioStreamCount() == 0 {
		problems = append(problems, "audio stream missing")
	}

	if len(problems) > 0 {
		detail := strings.Join(problems, "; ")
		logging.ErrorWithContext(logger, "assembled video failed verification", "output_verification_failed",
			logging.String("output_path", want.OutputPath),
			logging.String("detail", detail),
			logging.String(logging.FieldErrorHint, "inspect the file with ffprobe and check the ffmpeg build"),
		)
		return services.Wrap(services.ErrEncoding, stageName, "verify", detail, nil)
	}
	logger.Debug("output verified",
		logging.String("output_path", want.OutputPath),
		logging.Int("frame_count", stream.FrameCount()),
		logging.Float64("frame_rate", stream.FrameRate()),
	)
	return nil
}

func (a *Assembler) buildArgs(pattern string, fps int, audioPath string, result Result, output string) []string {
	rate := strconv.Itoa(fps)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-framerate", rate,
		"-start_number", "0",
		"-i", pattern,
	}
	if audioPath != "" {
		if result.AudioTrimmed {
			args = append(args, "-t", formatSeconds(result.VideoSeconds))
		}
		args = append(args, "-i", audioPath)
	}
	args = append(args, "-map", "0:v:0")
	if audioPath != "" {
		args = append(args, "-map", "1:a:0")
	}
	args = append(args,
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:v", a.settings.VideoCodec,
		"-pix_fmt", a.settings.PixelFormat,
		"-r", rate,
	)
	if audioPath != "" {
		args = append(args, "-c:a", a.settings.AudioCodec)
	}
	return append(args, output)
}

// stageFrames links every frame into dir under its sequence number and
// reports how many had to be copied instead of linked.
func stageFrames(refs []frames.Ref, dir string) (int, error) {
	checked := make(map[string]struct{})
	copied := 0
	for i, ref := range refs {
		if _, ok := checked[ref.Path]; !ok {
			if _, err := os.Stat(ref.Path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return copied, services.Wrap(services.ErrNotFound, stageName, "prepare frames", fmt.Sprintf("frame image %q missing", ref.Path), err)
				}
				return copied, services.Wrap(services.ErrConfiguration, stageName, "prepare frames", "stat frame image", err)
			}
			checked[ref.Path] = struct{}{}
		}
		linked, err := fileutil.LinkOrCopy(ref.Path, filepath.Join(dir, fmt.Sprintf(framePattern, i)))
		if err != nil {
			return copied, services.Wrap(services.ErrConfiguration, stageName, "prepare frames", "stage frame", err)
		}
		if !linked {
			copied++
		}
	}
	return copied, nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func probeAudioDuration(ctx context.Context, binary, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, fmt.Errorf("no audio stream in %q", path)
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || seconds < 0 {
		return 0, fmt.Errorf("invalid duration %q for %q", result.Format.Duration, path)
	}
	return seconds, nil
}

// defaultCommandRunner executes ffmpeg, folding its output into the error.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
