package video

import (
	"log/slog"

	draptolib "github.com/five82/drapto"

	"lipsync/internal/logging"
)

// logReporter forwards Drapto progress into the structured log. Encoding
// progress is sampled at 25% steps.
type logReporter struct {
	logger     *slog.Logger
	lastBucket int
}

func newLogReporter(logger *slog.Logger) *logReporter {
	return &logReporter{logger: logger, lastBucket: -1}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware", logging.String("hostname", s.Hostname))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Debug("drapto initialized",
		logging.String("input_file", s.InputFile),
		logging.String("output_file", s.OutputFile),
		logging.String("resolution", s.Resolution),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("drapto stage",
		logging.String("drapto_stage", s.Stage),
		logging.String("message", s.Message),
		logging.Float64("progress_percent", float64(s.Percent)),
	)
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("drapto crop", logging.String("crop", s.Crop), logging.Bool("required", s.Required))
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Debug("drapto encoding config",
		logging.Any("encoder", s.Encoder),
		logging.Any("preset", s.Preset),
		logging.Any("quality", s.Quality),
	)
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.logger.Info("archive encode started", logging.Int64("total_frames", int64(totalFrames)))
}

func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	bucket := int(float64(s.Percent)) / 25
	if bucket <= r.lastBucket {
		return
	}
	r.lastBucket = bucket
	r.logger.Info("archive encode progress",
		logging.Float64("progress_percent", float64(s.Percent)),
		logging.Float64("speed", float64(s.Speed)),
		logging.Duration("eta", s.ETA),
	)
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	if s.Passed {
		r.logger.Debug("drapto validation passed", logging.Int("steps", len(s.Steps)))
		return
	}
	for _, step := range s.Steps {
		if !step.Passed {
			logging.WarnWithContext(r.logger, "archive validation step failed", "archive_validation_failed",
				logging.String("step", step.Name),
				logging.String("details", step.Details),
			)
		}
	}
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("archive encode complete",
		logging.String("output_path", s.OutputPath),
		logging.Int64("original_size_bytes", int64(s.OriginalSize)),
		logging.Int64("encoded_size_bytes", int64(s.EncodedSize)),
		logging.Any("elapsed", s.TotalTime),
	)
}

func (r *logReporter) Warning(message string) {
	logging.WarnWithContext(r.logger, "drapto warning", "archive_warning", logging.String("message", message))
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	r.logger.Error("drapto error",
		logging.String("title", e.Title),
		logging.String("message", e.Message),
		logging.String(logging.FieldErrorHint, e.Suggestion),
	)
}

func (r *logReporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", message))
}

func (r *logReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.logger.Debug("drapto batch started", logging.Any("total_files", s.TotalFiles))
}

func (r *logReporter) FileProgress(s draptolib.FileProgressContext) {
	r.logger.Debug("drapto file progress", logging.Any("current_file", s.CurrentFile), logging.Any("total_files", s.TotalFiles))
}

func (r *logReporter) BatchComplete(s draptolib.BatchSummary) {
	r.logger.Debug("drapto batch complete", logging.Any("successful", s.SuccessfulCount), logging.Any("total_files", s.TotalFiles))
}

var _ draptolib.Reporter = (*logReporter)(nil)
