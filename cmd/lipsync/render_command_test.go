package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lipsync/internal/runs"
	"lipsync/internal/services"
	"lipsync/internal/testsupport"
	"lipsync/internal/timeline"
)

func TestTimelineCommandWritesStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	segs := writeSegments(t, env.baseDir)

	out, _, err := runCLI(t, []string{"timeline", segs}, env.configPath)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	events, err := timeline.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("decode stdout: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %s", len(events), out)
	}
	if events[0].Time != 0 {
		t.Fatalf("expected first event at 0, got %v", events[0].Time)
	}
}

func TestTimelineCommandWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	segs := writeSegments(t, env.baseDir)
	target := filepath.Join(env.baseDir, "out", "lip_sync.json")

	out, _, err := runCLI(t, []string{"timeline", segs, "-o", target}, env.configPath)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	requireContains(t, out, "Wrote 3 events")
	if _, err := timeline.ReadFile(target); err != nil {
		t.Fatalf("read timeline: %v", err)
	}
}

func TestRenderCommandEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	segs := writeSegments(t, env.baseDir)
	output := filepath.Join(env.baseDir, "out", "greeting.mp4")
	timelinePath := filepath.Join(env.baseDir, "out", "lip_sync.json")

	out, _, err := runCLI(t, []string{"render", segs, "-o", output, "--timeline", timelinePath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var outcome struct {
		RunID      string      `json:"run_id"`
		Status     runs.Status `json:"status"`
		EventCount int         `json:"event_count"`
		AtlasTier  string      `json:"atlas_tier"`
		Video      struct {
			OutputPath string `json:"output_path"`
			FrameCount int    `json:"frame_count"`
			HasAudio   bool   `json:"has_audio"`
		} `json:"video"`
	}
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("decode outcome: %v\n%s", err, out)
	}
	if outcome.Status != runs.StatusSucceeded {
		t.Fatalf("expected succeeded, got %q", outcome.Status)
	}
	if outcome.EventCount != 3 || outcome.Video.FrameCount == 0 || outcome.Video.HasAudio {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.AtlasTier != "placeholder" {
		t.Fatalf("expected placeholder atlas, got %q", outcome.AtlasTier)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected video at %s: %v", output, err)
	}
	if _, err := os.Stat(timelinePath); err != nil {
		t.Fatalf("expected timeline at %s: %v", timelinePath, err)
	}

	listOut, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, listOut, shortID(outcome.RunID))
	requireContains(t, listOut, "succeeded")

	showOut, _, err := runCLI(t, []string{"runs", "show", shortID(outcome.RunID)}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, showOut, outcome.RunID)
	requireContains(t, showOut, output)

	data, err := os.ReadFile(filepath.Join(env.baseDir, "metrics", "lipsync.prom"))
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	requireContains(t, string(data), `lipsync_renders_total{status="succeeded"} 1`)
}

func TestAssembleCommandFromTimeline(t *testing.T) {
	env := setupCLITestEnv(t)
	timelinePath := filepath.Join(env.baseDir, "lip_sync.json")
	if err := timeline.WriteFile(timelinePath, []timeline.Event{
		{Time: 0, Mouth: 'A'},
		{Time: 0.5, Mouth: 'B'},
	}); err != nil {
		t.Fatalf("write timeline: %v", err)
	}
	output := filepath.Join(env.baseDir, "assembled.mp4")

	out, _, err := runCLI(t, []string{"assemble", timelinePath, "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	requireContains(t, out, output)
	requireContains(t, out, "13 at 24 fps")
}

func TestAssembleEmptyTimelineIsNothingToRender(t *testing.T) {
	env := setupCLITestEnv(t)
	timelinePath := filepath.Join(env.baseDir, "empty.json")
	if err := timeline.WriteFile(timelinePath, nil); err != nil {
		t.Fatalf("write timeline: %v", err)
	}

	out, _, err := runCLI(t, []string{"assemble", timelinePath}, env.configPath)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	requireContains(t, out, "Nothing to render")
}

func TestRenderFailsPreflightWithoutFFmpeg(t *testing.T) {
	env := setupCLITestEnv(t)
	segs := writeSegments(t, env.baseDir)
	if err := os.Remove(filepath.Join(env.baseDir, "bin", "ffmpeg")); err != nil {
		t.Fatalf("remove ffmpeg stub: %v", err)
	}
	t.Setenv("PATH", filepath.Join(env.baseDir, "bin"))

	_, _, err := runCLI(t, []string{"render", segs}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "FFmpeg")
}

func TestFramesCommandPrintsRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	timelinePath := filepath.Join(env.baseDir, "lip_sync.json")
	if err := timeline.WriteFile(timelinePath, []timeline.Event{
		{Time: 0, Mouth: 'A'},
		{Time: 0.25, Mouth: 'X'},
	}); err != nil {
		t.Fatalf("write timeline: %v", err)
	}

	out, _, err := runCLI(t, []string{"frames", timelinePath, "--fps", "8"}, env.configPath)
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	requireContains(t, out, "MOUTH")
	requireContains(t, out, "3 frames at 8 fps")
}

func ffprobeReporting(nbFrames string) string {
	return fmt.Sprintf("#!/bin/sh\ncat <<'JSON'\n{\"streams\":[{\"codec_type\":\"video\",\"avg_frame_rate\":\"24/1\",\"nb_frames\":%q}],\"format\":{}}\nJSON\n", nbFrames)
}

func writeTwoEventTimeline(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "lip_sync.json")
	if err := timeline.WriteFile(path, []timeline.Event{{Time: 0, Mouth: 'A'}, {Time: 0.5, Mouth: 'B'}}); err != nil {
		t.Fatalf("write timeline: %v", err)
	}
	return path
}

func TestAssembleCommandVerifiesOutput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithScriptedBinary("ffprobe", ffprobeReporting("13")))
	timelinePath := writeTwoEventTimeline(t, env.baseDir)

	out, _, err := runCLI(t, []string{"assemble", timelinePath, "-o", filepath.Join(env.baseDir, "checked.mp4"), "--verify"}, env.configPath)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	requireContains(t, out, "Verified")
	requireContains(t, out, "13 at 24 fps")
}

func TestAssembleCommandVerifyFailsOnFrameMismatch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithScriptedBinary("ffprobe", ffprobeReporting("12")))
	timelinePath := writeTwoEventTimeline(t, env.baseDir)

	_, _, err := runCLI(t, []string{"assemble", timelinePath, "-o", filepath.Join(env.baseDir, "short.mp4"), "--verify"}, env.configPath)
	if !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	requireContains(t, err.Error(), "expected 13 frames, found 12")
}

func TestFramesCommandRejectsTimesPastLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	timelinePath := filepath.Join(env.baseDir, "foreign.json")
	if err := timeline.WriteFile(timelinePath, []timeline.Event{
		{Time: 0, Mouth: 'A'},
		{Time: 1e8, Mouth: 'X'},
	}); err != nil {
		t.Fatalf("write timeline: %v", err)
	}

	_, _, err := runCLI(t, []string{"frames", timelinePath}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, err.Error(), "video.max_seconds")
}
