package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lipsync/internal/atlas"
	"lipsync/internal/config"
	"lipsync/internal/frames"
	"lipsync/internal/logging"
	"lipsync/internal/metrics"
	"lipsync/internal/phoneme"
	"lipsync/internal/runs"
	"lipsync/internal/segments"
	"lipsync/internal/services"
	"lipsync/internal/textutil"
	"lipsync/internal/timeline"
	"lipsync/internal/video"
)

const (
	StageTimeline = "timeline"
	StageAtlas    = "atlas"
	StageFrames   = "frames"
	StageAssemble = "assemble"
	StageArchive  = "archive"
)

// Request describes one render.
type Request struct {
	// SegmentsPath is read when Segments is nil.
	SegmentsPath string
	Segments     []timeline.Segment
	// TimelinePath is written by Render when set and read by RenderTimeline.
	TimelinePath string
	AudioPath    string
	// OutputPath defaults to <work_dir>/<segments name>.mp4.
	OutputPath string
	// FPS overrides video.fps when positive.
	FPS int
	// Verify inspects the assembled video even when video.verify_output is off.
	Verify bool
}

// Outcome summarizes a render.
type Outcome struct {
	RunID            string            `json:"run_id"`
	Status           runs.Status       `json:"status"`
	EventCount       int               `json:"event_count"`
	TimelinePath     string            `json:"timeline_path,omitempty"`
	AtlasTier        string            `json:"atlas_tier,omitempty"`
	AtlasFingerprint string            `json:"atlas_fingerprint,omitempty"`
	Frames           frames.Result     `json:"-"`
	Video            video.Result      `json:"video"`
	ArchivePath      string            `json:"archive_path,omitempty"`
	Skipped          []frames.Interval `json:"skipped,omitempty"`
	Elapsed          time.Duration     `json:"elapsed"`
}

// Renderer runs the render pipeline.
type Renderer struct {
	cfg       *config.Config
	logger    *slog.Logger
	source    timeline.SymbolSource
	assembler *video.Assembler
	archiver  video.Archiver
	store     *runs.Store
	metrics   *metrics.Recorder
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithSymbolSource replaces the espeak-backed phoneme mapper.
func WithSymbolSource(src timeline.SymbolSource) Option {
	return func(r *Renderer) {
		if src != nil {
			r.source = src
		}
	}
}

// WithAssembler replaces the default ffmpeg assembler.
func WithAssembler(a *video.Assembler) Option {
	return func(r *Renderer) {
		if a != nil {
			r.assembler = a
		}
	}
}

// WithArchiver sets the archiver used when video.archive_av1 is enabled.
func WithArchiver(a video.Archiver) Option {
	return func(r *Renderer) {
		r.archiver = a
	}
}

// WithRunStore records every render in store.
func WithRunStore(store *runs.Store) Option {
	return func(r *Renderer) {
		r.store = store
	}
}

// WithMetrics records render statistics in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Renderer) {
		r.metrics = rec
	}
}

// New constructs a renderer from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Renderer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Renderer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.source == nil {
		chain := phoneme.NewChain(logging.NewComponentLogger(logger, "phonemizer"), cfg.PhonemizerBinaries(),
			phoneme.WithTimeout(cfg.PhonemizerTimeout()))
		r.source = phoneme.Mapper{Phonemizer: chain, Language: cfg.Phonemizer.Language}
	}
	if r.assembler == nil {
		r.assembler = video.NewAssembler(video.SettingsFromConfig(cfg), logger)
	}
	if r.archiver == nil && cfg.Video.ArchiveAV1 {
		r.archiver = video.NewDraptoArchiver(logger)
	}
	return r, nil
}

// BuildTimeline turns segments into mouth-shape events using the configured
// transcription failure policy.
func (r *Renderer) BuildTimeline(ctx context.Context, segs []timeline.Segment) ([]timeline.Event, error) {
	policy, err := timeline.ParsePolicy(r.cfg.Timeline.OnTranscriptionFailure)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageTimeline, "policy", "", err)
	}
	builder := timeline.Builder{
		Source: r.source,
		Policy: policy,
		Logger: logging.WithContext(ctx, r.logger),
	}
	return builder.Build(ctx, segs)
}

// EnsureAtlas loads the base face and materializes the mouth-shape images,
// reusing an existing atlas when the face has not changed.
func (r *Renderer) EnsureAtlas(ctx context.Context) (*atlas.Atlas, error) {
	logger := logging.WithContext(ctx, r.logger)
	face, err := atlas.LoadBaseFace(logger, atlas.DefaultSources(
		r.cfg.Avatar.PortraitPath,
		r.cfg.Avatar.MaxDimension,
		r.cfg.Avatar.PlaceholderSize,
	)...)
	if err != nil {
		return nil, err
	}
	return atlas.Ensure(face, r.cfg.Paths.AtlasDir, logger)
}

// SequenceFrames expands events into frames resolved against set. Timelines
// longer than video.max_seconds are rejected.
func (r *Renderer) SequenceFrames(ctx context.Context, events []timeline.Event, end float64, fps int, set frames.Resolver) (frames.Result, error) {
	seq := frames.Sequencer{
		FPS:        r.fps(fps),
		Resolver:   set,
		Logger:     logging.WithContext(ctx, r.logger),
		MaxSeconds: r.cfg.Video.MaxSeconds,
	}
	return seq.Sequence(events, end)
}

// Render runs every stage starting from segments.
func (r *Renderer) Render(ctx context.Context, req Request) (Outcome, error) {
	ctx, outcome, finish := r.begin(ctx, req)

	var (
		segs   = req.Segments
		events []timeline.Event
	)
	err := r.runStage(ctx, StageTimeline, func(ctx context.Context, logger *slog.Logger) error {
		if segs == nil {
			if strings.TrimSpace(req.SegmentsPath) == "" {
				return services.Wrap(services.ErrValidation, StageTimeline, "load", "segments or segments path required", nil)
			}
			loaded, err := segments.Load(req.SegmentsPath)
			if err != nil {
				return err
			}
			segs = loaded
		}
		built, err := r.BuildTimeline(ctx, segs)
		if err != nil {
			return err
		}
		events = built
		if path := strings.TrimSpace(req.TimelinePath); path != "" {
			if err := timeline.WriteFile(path, events); err != nil {
				return err
			}
			outcome.TimelinePath = path
		}
		logger.Info("timeline ready",
			logging.Int("segments", len(segs)),
			logging.Int("events", len(events)),
			logging.String("timeline_path", outcome.TimelinePath),
		)
		return nil
	})
	if err != nil {
		return finish(err)
	}
	outcome.EventCount = len(events)

	err = r.renderEvents(ctx, req, events, timeline.End(segs), outcome)
	return finish(err)
}

// RenderTimeline renders an existing interchange file. Segments, when given,
// only determine how long the final mouth shape is held.
func (r *Renderer) RenderTimeline(ctx context.Context, req Request) (Outcome, error) {
	ctx, outcome, finish := r.begin(ctx, req)

	var (
		events []timeline.Event
		end    float64
	)
	err := r.runStage(ctx, StageTimeline, func(ctx context.Context, logger *slog.Logger) error {
		if strings.TrimSpace(req.TimelinePath) == "" {
			return services.Wrap(services.ErrValidation, StageTimeline, "load", "timeline path required", nil)
		}
		loaded, err := timeline.ReadFile(req.TimelinePath)
		if err != nil {
			return err
		}
		events = loaded
		outcome.TimelinePath = req.TimelinePath

		segs := req.Segments
		if segs == nil && strings.TrimSpace(req.SegmentsPath) != "" {
			if segs, err = segments.Load(req.SegmentsPath); err != nil {
				return err
			}
		}
		end = timeline.End(segs)
		logger.Info("timeline loaded", logging.Int("events", len(events)), logging.String("timeline_path", req.TimelinePath))
		return nil
	})
	if err != nil {
		return finish(err)
	}
	outcome.EventCount = len(events)

	err = r.renderEvents(ctx, req, events, end, outcome)
	return finish(err)
}

func (r *Renderer) renderEvents(ctx context.Context, req Request, events []timeline.Event, end float64, outcome *Outcome) error {
	var set *atlas.Atlas
	if len(events) > 0 {
		err := r.runStage(ctx, StageAtlas, func(ctx context.Context, _ *slog.Logger) error {
			built, err := r.EnsureAtlas(ctx)
			if err != nil {
				return err
			}
			set = built
			outcome.AtlasTier = built.Tier()
			outcome.AtlasFingerprint = built.Fingerprint()
			return nil
		})
		if err != nil {
			return err
		}
	}

	var result frames.Result
	if err := r.runStage(ctx, StageFrames, func(ctx context.Context, logger *slog.Logger) error {
		var resolver frames.Resolver
		if set != nil {
			resolver = set
		}
		sequenced, err := r.SequenceFrames(ctx, events, end, req.FPS, resolver)
		if err != nil {
			return err
		}
		result = sequenced
		outcome.Frames = result
		outcome.Skipped = result.Skipped
		logger.Info("frames sequenced",
			logging.Int("frames", len(result.Frames)),
			logging.Int("intervals", len(result.Intervals)),
			logging.Int("skipped", len(result.Skipped)),
			logging.Float64("seconds", result.Duration()),
		)
		return nil
	}); err != nil {
		return err
	}

	if err := r.runStage(ctx, StageAssemble, func(ctx context.Context, _ *slog.Logger) error {
		assembled, err := r.assembler.Assemble(ctx, video.Request{
			Frames:     result.Frames,
			FPS:        r.fps(req.FPS),
			AudioPath:  req.AudioPath,
			OutputPath: r.outputPath(req),
			WorkDir:    r.cfg.Paths.WorkDir,
			Verify:     req.Verify || r.cfg.Video.VerifyOutput,
		})
		if err != nil {
			return err
		}
		outcome.Video = assembled
		return nil
	}); err != nil {
		return err
	}

	if outcome.Video.Status == video.StatusNothingToRender {
		outcome.Status = runs.StatusNothingToRender
		return nil
	}
	outcome.Status = runs.StatusSucceeded

	if r.cfg.Video.ArchiveAV1 && r.archiver != nil {
		archiveErr := r.runStage(ctx, StageArchive, func(ctx context.Context, _ *slog.Logger) error {
			path, err := r.archiver.Archive(ctx, outcome.Video.OutputPath, r.cfg.Video.ArchiveDir)
			if err != nil {
				return err
			}
			outcome.ArchivePath = path
			return nil
		})
		if archiveErr != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "archive encode failed; keeping primary render", "archive_failed",
				logging.Error(archiveErr),
				logging.String(logging.FieldImpact, "no AV1 archive copy for this render"),
			)
		}
	}
	return nil
}

// begin assigns a run id, records the run and returns a finish func that
// persists the outcome.
func (r *Renderer) begin(ctx context.Context, req Request) (context.Context, *Outcome, func(error) (Outcome, error)) {
	started := time.Now()
	outcome := &Outcome{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, outcome.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if r.store != nil {
		_, err := r.store.Begin(ctx, runs.Run{
			ID:           outcome.RunID,
			SegmentsPath: req.SegmentsPath,
			TimelinePath: req.TimelinePath,
			AudioPath:    req.AudioPath,
			OutputPath:   r.outputPath(req),
			FPS:          r.fps(req.FPS),
			StartedAt:    started.UTC(),
		})
		if err != nil {
			logging.WarnWithContext(logger, "failed to record render start", "run_store_failed", logging.Error(err))
		}
	}

	finish := func(renderErr error) (Outcome, error) {
		outcome.Elapsed = time.Since(started)
		if renderErr != nil {
			outcome.Status = runs.StatusFailed
		}
		if r.store != nil {
			err := r.store.Finish(context.WithoutCancel(ctx), outcome.RunID, runs.Outcome{
				Status:           outcome.Status,
				OutputPath:       outcome.Video.OutputPath,
				ArchivePath:      outcome.ArchivePath,
				AtlasTier:        outcome.AtlasTier,
				AtlasFingerprint: outcome.AtlasFingerprint,
				EventCount:       outcome.EventCount,
				FrameCount:       len(outcome.Frames.Frames),
				SkippedIntervals: len(outcome.Skipped),
				VideoSeconds:     outcome.Video.VideoSeconds,
				AudioSeconds:     outcome.Video.AudioSeconds,
				AudioTrimmed:     outcome.Video.AudioTrimmed,
				Err:              renderErr,
			})
			if err != nil {
				logging.WarnWithContext(logger, "failed to record render outcome", "run_store_failed", logging.Error(err))
			}
		}
		if r.metrics != nil {
			r.metrics.Observe(metrics.Render{
				Status:      string(outcome.Status),
				Events:      outcome.EventCount,
				Frames:      len(outcome.Frames.Frames),
				Skipped:     len(outcome.Skipped),
				Placeholder: outcome.AtlasTier == atlas.TierPlaceholder,
				Elapsed:     outcome.Elapsed,
			})
			if err := r.metrics.WriteTextfile(r.cfg.Metrics.TextfilePath); err != nil {
				logging.WarnWithContext(logger, "failed to export metrics", "metrics_export_failed", logging.Error(err))
			}
		}
		if renderErr != nil {
			return *outcome, renderErr
		}
		logger.Info("render complete",
			logging.String(logging.FieldEventType, "render_complete"),
			logging.String("status", string(outcome.Status)),
			logging.String("output_path", outcome.Video.OutputPath),
			logging.Int("frames", len(outcome.Frames.Frames)),
			logging.Duration("elapsed", outcome.Elapsed),
		)
		return *outcome, nil
	}
	return ctx, outcome, finish
}

func (r *Renderer) fps(override int) int {
	if override > 0 {
		return override
	}
	return r.cfg.Video.FPS
}

func (r *Renderer) outputPath(req Request) string {
	if path := strings.TrimSpace(req.OutputPath); path != "" {
		return path
	}
	source := req.SegmentsPath
	if source == "" {
		source = req.TimelinePath
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if source == "" {
		name = "render"
	}
	return filepath.Join(r.cfg.Paths.WorkDir, textutil.SanitizeToken(name)+".mp4")
}

// runStage executes fn with the stage stamped on the context and logs its
// start, completion and failure.
func (r *Renderer) runStage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	started := time.Now()

	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(stageCtx, logger); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
		)
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
