// Package pipeline wires the lip-sync components into a render.
//
// A render runs five stages in order, each stamped on the context so log
// lines carry run_id and stage:
//
//   - timeline: load segments, build mouth-shape events, optionally persist
//     the interchange file
//   - atlas: load the base face and ensure the nine mouth images on disk
//   - frames: expand events into a fixed-rate frame list
//   - assemble: encode frames and audio with ffmpeg
//   - archive: optional AV1 re-encode; failures only warn
//
// RenderTimeline starts at the atlas stage from an existing interchange file,
// so timelines produced elsewhere can be rendered without re-phonemizing.
// Every render is recorded in the run store and the metrics recorder when
// those are configured.
package pipeline
