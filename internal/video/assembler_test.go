package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lipsync/internal/frames"
	"lipsync/internal/logging"
	"lipsync/internal/media/ffprobe"
	"lipsync/internal/mouth"
	"lipsync/internal/services"
)

type ffmpegCall struct {
	name string
	args []string
}

// fakeFFmpeg records invocations and writes the output path (last argument).
func fakeFFmpeg(calls *[]ffmpegCall, check func(args []string)) commandRunner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, ffmpegCall{name: name, args: append([]string(nil), args...)})
		if check != nil {
			check(args)
		}
		return os.WriteFile(args[len(args)-1], []byte("video"), 0o644)
	}
}

func fixedProbe(seconds float64) func(context.Context, string, string) (float64, error) {
	return func(context.Context, string, string) (float64, error) { return seconds, nil }
}

func writeFrames(t *testing.T, count int) []frames.Ref {
	t.Helper()
	dir := t.TempDir()
	paths := map[mouth.Symbol]string{}
	for _, sym := range []mouth.Symbol{mouth.A, mouth.Rest} {
		p := filepath.Join(dir, fmt.Sprintf("avatar_%s.png", sym))
		if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		paths[sym] = p
	}
	refs := make([]frames.Ref, count)
	for i := range refs {
		sym := mouth.A
		if i%2 == 1 {
			sym = mouth.Rest
		}
		refs[i] = frames.Ref{Index: i, Mouth: sym, Path: paths[sym]}
	}
	return refs
}

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "speech.mp3")
	if err := os.WriteFile(p, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return p
}

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func TestAssembleTrimsLongerAudio(t *testing.T) {
	refs := writeFrames(t, 168)
	audio := writeAudio(t)
	output := filepath.Join(t.TempDir(), "out", "result.mp4")

	var calls []ffmpegCall
	staged := 0
	check := func(args []string) {
		pattern, _ := argValue(args, "-i")
		for i := range 168 {
			if _, err := os.Stat(fmt.Sprintf(pattern, i)); err == nil {
				staged++
			}
		}
	}
	a := NewAssembler(Settings{}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, check)),
		WithAudioProber(fixedProbe(10)),
	)

	result, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24, AudioPath: audio, OutputPath: output})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if staged != 168 {
		t.Fatalf("expected 168 staged frames during encode, got %d", staged)
	}
	if result.Status != StatusRendered || result.FrameCount != 168 || result.VideoSeconds != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.HasAudio || !result.AudioTrimmed || result.AudioSeconds != 10 {
		t.Fatalf("expected trimmed audio, got %+v", result)
	}
	if len(calls) != 1 || calls[0].name != "ffmpeg" {
		t.Fatalf("expected one ffmpeg call, got %+v", calls)
	}
	args := calls[0].args
	if v, ok := argValue(args, "-t"); !ok || v != "7" {
		t.Fatalf("expected -t 7, got %q (args %q)", v, args)
	}
	tIdx := slices.Index(args, "-t")
	audioIdx := slices.Index(args, audio)
	if tIdx > audioIdx {
		t.Fatalf("-t must limit the audio input: %q", args)
	}
	for _, want := range [][2]string{{"-framerate", "24"}, {"-r", "24"}, {"-c:v", "libx264"}, {"-c:a", "aac"}, {"-pix_fmt", "yuv420p"}} {
		if v, _ := argValue(args, want[0]); v != want[1] {
			t.Fatalf("expected %s %s, got %q", want[0], want[1], v)
		}
	}
	if !slices.Contains(args, "1:a:0") {
		t.Fatalf("expected audio map in %q", args)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(output), ".tmp-result.mp4")); !os.IsNotExist(err) {
		t.Fatalf("temp output should be renamed away, stat err=%v", err)
	}
}

func TestAssembleKeepsShorterAudio(t *testing.T) {
	refs := writeFrames(t, 48)
	var calls []ffmpegCall
	a := NewAssembler(Settings{}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, nil)),
		WithAudioProber(fixedProbe(1.5)),
	)
	result, err := a.Assemble(context.Background(), Request{
		Frames: refs, FPS: 24, AudioPath: writeAudio(t), OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.AudioTrimmed {
		t.Fatal("shorter audio must not be trimmed")
	}
	if slices.Contains(calls[0].args, "-t") {
		t.Fatalf("unexpected -t in %q", calls[0].args)
	}
	if !slices.Contains(calls[0].args, "-c:a") {
		t.Fatalf("expected audio codec in %q", calls[0].args)
	}
}

func TestAssembleWithoutAudio(t *testing.T) {
	refs := writeFrames(t, 10)
	var calls []ffmpegCall
	probed := false
	a := NewAssembler(Settings{VideoCodec: "libx265"}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, nil)),
		WithAudioProber(func(context.Context, string, string) (float64, error) {
			probed = true
			return 0, nil
		}),
	)
	result, err := a.Assemble(context.Background(), Request{
		Frames: refs, FPS: 10,
		AudioPath:  filepath.Join(t.TempDir(), "missing.mp3"),
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if probed {
		t.Fatal("missing audio should not be probed")
	}
	if result.HasAudio {
		t.Fatalf("expected silent video, got %+v", result)
	}
	args := calls[0].args
	if slices.Contains(args, "-c:a") || slices.Contains(args, "1:a:0") {
		t.Fatalf("unexpected audio args %q", args)
	}
	if v, _ := argValue(args, "-c:v"); v != "libx265" {
		t.Fatalf("expected codec override, got %q", v)
	}
}

func TestAssembleNothingToRender(t *testing.T) {
	called := false
	a := NewAssembler(Settings{}, logging.NewNop(), WithCommandRunner(func(context.Context, string, ...string) error {
		called = true
		return nil
	}))
	output := filepath.Join(t.TempDir(), "out.mp4")
	result, err := a.Assemble(context.Background(), Request{FPS: 24, OutputPath: output})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Status != StatusNothingToRender {
		t.Fatalf("unexpected status %q", result.Status)
	}
	if called {
		t.Fatal("ffmpeg should not run for an empty frame list")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("no output should be written")
	}
}

func TestAssembleEncodingFailure(t *testing.T) {
	refs := writeFrames(t, 4)
	dir := t.TempDir()
	output := filepath.Join(dir, "out.mp4")
	a := NewAssembler(Settings{}, logging.NewNop(), WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return errors.New("exit status 1: Unknown encoder")
	}))
	_, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24, OutputPath: output})
	if !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, found %d", len(entries))
	}
}

func TestAssembleValidation(t *testing.T) {
	a := NewAssembler(Settings{}, logging.NewNop())
	if _, err := a.Assemble(context.Background(), Request{FPS: 0}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for fps, got %v", err)
	}
	refs := writeFrames(t, 1)
	if _, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for output, got %v", err)
	}
	refs[0].Path = filepath.Join(t.TempDir(), "gone.png")
	_, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24, OutputPath: filepath.Join(t.TempDir(), "o.mp4")})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing frame, got %v", err)
	}
}

func TestAssembleProbeFailure(t *testing.T) {
	refs := writeFrames(t, 2)
	a := NewAssembler(Settings{}, logging.NewNop(),
		WithCommandRunner(func(context.Context, string, ...string) error { return nil }),
		WithAudioProber(func(context.Context, string, string) (float64, error) {
			return 0, errors.New("no audio stream")
		}),
	)
	_, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24, AudioPath: writeAudio(t), OutputPath: filepath.Join(t.TempDir(), "o.mp4")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func inspectedVideo(nbFrames, rate string, withAudio bool) func(context.Context, string, string) (ffprobe.Result, error) {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		result := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", AvgFrameRate: rate, NbFrames: nbFrames}}}
		if withAudio {
			result.Streams = append(result.Streams, ffprobe.Stream{CodecType: "audio"})
		}
		return result, nil
	}
}

func TestAssembleVerifiesOutput(t *testing.T) {
	refs := writeFrames(t, 48)
	var calls []ffmpegCall
	var inspected string
	a := NewAssembler(Settings{FFprobeBinary: "ffprobe-test"}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, nil)),
		WithAudioProber(fixedProbe(1)),
		WithOutputInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
			if binary != "ffprobe-test" {
				t.Errorf("unexpected ffprobe binary %q", binary)
			}
			inspected = path
			return inspectedVideo("48", "24/1", true)(ctx, binary, path)
		}),
	)
	output := filepath.Join(t.TempDir(), "verified.mp4")
	result, err := a.Assemble(context.Background(), Request{Frames: refs, FPS: 24, AudioPath: writeAudio(t), OutputPath: output, Verify: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !result.Verified {
		t.Fatalf("expected verified result, got %+v", result)
	}
	if inspected != output {
		t.Fatalf("expected final output to be inspected, got %q", inspected)
	}
}

func TestAssembleVerifyDetectsMismatch(t *testing.T) {
	tests := []struct {
		name    string
		inspect func(context.Context, string, string) (ffprobe.Result, error)
		want    string
	}{
		{"frame count", inspectedVideo("47", "24/1", false), "expected 48 frames, found 47"},
		{"frame rate", inspectedVideo("48", "30000/1001", false), "expected 24 fps"},
		{"no video", func(context.Context, string, string) (ffprobe.Result, error) { return ffprobe.Result{}, nil }, "expected 1 video stream, found 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []ffmpegCall
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			a := NewAssembler(Settings{}, logger,
				WithCommandRunner(fakeFFmpeg(&calls, nil)),
				WithOutputInspector(tt.inspect),
			)
			_, err := a.Assemble(context.Background(), Request{Frames: writeFrames(t, 48), FPS: 24, OutputPath: filepath.Join(t.TempDir(), "bad.mp4"), Verify: true})
			if !errors.Is(err, services.ErrEncoding) {
				t.Fatalf("expected encoding error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
			if !strings.Contains(logs.String(), `"event_type":"output_verification_failed"`) {
				t.Fatalf("expected verification failure log, got:\n%s", logs.String())
			}
		})
	}
}

func TestAssembleVerifyToleratesMissingFrameCount(t *testing.T) {
	var calls []ffmpegCall
	a := NewAssembler(Settings{}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, nil)),
		WithOutputInspector(inspectedVideo("", "24/1", false)),
	)
	result, err := a.Assemble(context.Background(), Request{Frames: writeFrames(t, 5), FPS: 24, OutputPath: filepath.Join(t.TempDir(), "o.mp4"), Verify: true})
	if err != nil || !result.Verified {
		t.Fatalf("expected verified result, got %+v %v", result, err)
	}
}

func TestAssembleSkipsVerifyByDefault(t *testing.T) {
	var calls []ffmpegCall
	a := NewAssembler(Settings{}, logging.NewNop(),
		WithCommandRunner(fakeFFmpeg(&calls, nil)),
		WithOutputInspector(func(context.Context, string, string) (ffprobe.Result, error) {
			t.Fatal("inspector should not run without Verify")
			return ffprobe.Result{}, nil
		}),
	)
	result, err := a.Assemble(context.Background(), Request{Frames: writeFrames(t, 2), FPS: 24, OutputPath: filepath.Join(t.TempDir(), "o.mp4")})
	if err != nil || result.Verified {
		t.Fatalf("unexpected result %+v %v", result, err)
	}
}
