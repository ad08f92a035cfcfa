// Package video turns an ordered frame list plus an optional audio track into
// an encoded video file.
//
// Assembler materializes the frames as a numbered image sequence in a private
// work directory, probes the audio length with ffprobe, and drives ffmpeg to
// produce the output. Audio longer than the frame sequence is cut to the video
// length; shorter audio is left as is. The output is written beside its target
// and renamed into place so readers never observe a partial file.
//
// DraptoArchiver optionally re-encodes a finished render to AV1 through the
// Drapto library.
package video
