package timeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"lipsync/internal/mouth"
	"lipsync/internal/phoneme"
	"lipsync/internal/services"
)

type fixedSource map[string][]mouth.Symbol

func (f fixedSource) Symbols(_ context.Context, text string) ([]mouth.Symbol, error) {
	if syms, ok := f[text]; ok {
		return syms, nil
	}
	return nil, phoneme.ErrTranscriptionUnavailable
}

func symbols(s string) []mouth.Symbol {
	out := make([]mouth.Symbol, len(s))
	for i := range s {
		out[i] = mouth.Symbol(s[i])
	}
	return out
}

func TestBuildSpacesSymbolsEvenly(t *testing.T) {
	b := Builder{Source: fixedSource{"Hola mundo": symbols("ACAX")}}
	events, err := b.Build(context.Background(), []Segment{{Start: 0, End: 2, Text: "Hola mundo"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantTimes := []float64{0, 0.5, 1.0, 1.5}
	if len(events) != len(wantTimes) {
		t.Fatalf("expected %d events, got %d", len(wantTimes), len(events))
	}
	for i, ev := range events {
		if ev.Time != wantTimes[i] {
			t.Fatalf("event %d time = %v, want %v", i, ev.Time, wantTimes[i])
		}
	}
	if events[3].Mouth != mouth.Rest {
		t.Fatalf("unexpected last mouth %q", events[3].Mouth)
	}
}

func TestBuildCountsAndBounds(t *testing.T) {
	src := fixedSource{
		"uno":   symbols("ECA"),
		"":      nil,
		"siete": symbols("CEECE"),
	}
	segs := []Segment{
		{Start: 0.3, End: 1.1, Text: "uno"},
		{Start: 1.1, End: 2, Text: ""},
		{Start: 2.25, End: 3.9, Text: "siete"},
	}
	events, err := Builder{Source: src}.Build(context.Background(), segs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("expected 3+0+5 events, got %d", len(events))
	}
	check := func(evs []Event, seg Segment) {
		step := (seg.End - seg.Start) / float64(len(evs))
		for j, ev := range evs {
			if ev.Time < seg.Start || ev.Time >= seg.End {
				t.Fatalf("event %v outside [%v, %v)", ev.Time, seg.Start, seg.End)
			}
			want := seg.Start + float64(j)*step
			if math.Abs(ev.Time-want) > 1e-12 {
				t.Fatalf("event %d time %v, want %v", j, ev.Time, want)
			}
		}
	}
	check(events[:3], segs[0])
	check(events[3:], segs[2])
	for i := 1; i < len(events); i++ {
		if events[i].Time <= events[i-1].Time {
			t.Fatalf("events not strictly increasing at %d", i)
		}
	}
}

func TestBuildZeroLengthSegmentRepeatsTimestamp(t *testing.T) {
	events, err := Builder{Source: fixedSource{"a": symbols("AA")}}.Build(context.Background(),
		[]Segment{{Start: 1, End: 1, Text: "a"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(events) != 2 || events[0].Time != 1 || events[1].Time != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	events, err := Builder{Source: fixedSource{}}.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestBuildRestPolicySubstitutesRest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	b := Builder{Source: fixedSource{"ok": symbols("B")}, Policy: PolicyRest, Logger: logger}
	events, err := b.Build(context.Background(), []Segment{
		{Start: 0, End: 1, Text: "ok"},
		{Start: 1, End: 2, Text: "unavailable"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1] != (Event{Time: 1, Mouth: mouth.Rest}) {
		t.Fatalf("unexpected substituted event %+v", events[1])
	}
	if !strings.Contains(buf.String(), `"event_type":"transcription_unavailable"`) {
		t.Fatalf("expected warning log, got %s", buf.String())
	}
}

func TestBuildAbortPolicy(t *testing.T) {
	b := Builder{Source: fixedSource{}, Policy: PolicyAbort}
	_, err := b.Build(context.Background(), []Segment{{Start: 0, End: 1, Text: "x"}})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription marker, got %v", err)
	}
	if !errors.Is(err, phoneme.ErrTranscriptionUnavailable) {
		t.Fatalf("expected underlying error to be preserved, got %v", err)
	}
}

type errSource struct{ err error }

func (e errSource) Symbols(context.Context, string) ([]mouth.Symbol, error) { return nil, e.err }

func TestBuildOtherErrorsAbort(t *testing.T) {
	boom := errors.New("boom")
	_, err := Builder{Source: errSource{boom}}.Build(context.Background(), []Segment{{Start: 0, End: 1, Text: "x"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := (Builder{}).Build(context.Background(), nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing source, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyRest {
		t.Fatalf("expected default rest, got %q %v", p, err)
	}
	if p, err := ParsePolicy("abort"); err != nil || p != PolicyAbort {
		t.Fatalf("expected abort, got %q %v", p, err)
	}
	if _, err := ParsePolicy("retry"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestSegmentHelpers(t *testing.T) {
	if err := (Segment{Start: 2, End: 1}).Validate(); err == nil {
		t.Fatal("expected error for end before start")
	}
	if err := (Segment{Start: 1, End: 1}).Validate(); err != nil {
		t.Fatalf("zero-length segment should be valid: %v", err)
	}
	if got := End([]Segment{{Start: 0, End: 2}, {Start: 2, End: 4.5}, {Start: 1, End: 3}}); got != 4.5 {
		t.Fatalf("End = %v", got)
	}
	if got := End(nil); got != 0 {
		t.Fatalf("End(nil) = %v", got)
	}
}
