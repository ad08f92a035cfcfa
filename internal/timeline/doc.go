// Package timeline distributes mouth shapes across timed text segments and
// reads/writes the lip-sync interchange file.
//
// Builder.Build phonemizes each segment and spaces its symbols evenly over the
// segment span. The interchange form is a JSON array of {"time", "mouth"}
// objects so the frame sequencer can run without re-transcribing.
package timeline
