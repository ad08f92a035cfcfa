// Package services defines shared utilities consumed by the pipeline stages
// and the wrappers around external tools (espeak-ng, ffmpeg, ffprobe).
//
// Key responsibilities:
//   - Context helpers that stamp render run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (fatal encode vs. degraded transcription) with errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
