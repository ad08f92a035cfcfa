// Command lipsync renders talking-avatar videos from timed speech segments.
//
// Subcommands cover each step of the pipeline so intermediate artifacts can be
// inspected or produced elsewhere:
//
//	lipsync timeline segments.json -o lip_sync.json
//	lipsync frames lip_sync.json --fps 24
//	lipsync assemble lip_sync.json --audio speech.mp3 -o talk.mp4
//	lipsync render segments.json --audio speech.mp3 -o talk.mp4
//
// Supporting commands manage configuration (config init|validate), the
// mouth-shape atlas (atlas build|show), dependency health (status) and render
// history (runs list|show|prune).
package main
