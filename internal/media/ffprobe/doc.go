// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Inspect executes ffprobe and returns a parsed Result. The video assembler
// uses it to measure audio tracks before muxing and to confirm the encoded
// output carries the expected streams.
package ffprobe
