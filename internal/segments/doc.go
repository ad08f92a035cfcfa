// Package segments loads timed text segments produced by external
// transcription or translation tools.
//
// Supported inputs are a JSON array of {start, end, text}, a WhisperX JSON
// document with a top-level "segments" array, a YAML list with the same
// fields, and SRT subtitle files. Segments keep their file order; only
// segments whose end precedes their start are rejected.
package segments
