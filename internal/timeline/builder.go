package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lipsync/internal/logging"
	"lipsync/internal/mouth"
	"lipsync/internal/phoneme"
	"lipsync/internal/services"
)

// SymbolSource converts text to mouth shapes. phoneme.Mapper satisfies it.
type SymbolSource interface {
	Symbols(ctx context.Context, text string) ([]mouth.Symbol, error)
}

// FailurePolicy selects what happens when a segment cannot be transcribed.
type FailurePolicy string

const (
	// PolicyRest emits a single rest event at the segment start.
	PolicyRest FailurePolicy = "rest"
	// PolicyAbort stops the build and returns the error.
	PolicyAbort FailurePolicy = "abort"
)

// ParsePolicy maps a config value onto a FailurePolicy.
func ParsePolicy(value string) (FailurePolicy, error) {
	switch FailurePolicy(value) {
	case "", PolicyRest:
		return PolicyRest, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown transcription failure policy %q", value)
	}
}

// Builder turns segments into timed mouth-shape events.
type Builder struct {
	Source SymbolSource
	Policy FailurePolicy
	Logger *slog.Logger
}

// Build processes segments in order. A segment with N symbols produces N
// events spaced (End-Start)/N apart starting at Start; a segment with no
// symbols produces none. Segments are not reordered or validated.
func (b Builder) Build(ctx context.Context, segments []Segment) ([]Event, error) {
	if b.Source == nil {
		return nil, services.Wrap(services.ErrConfiguration, "timeline", "build", "no symbol source configured", nil)
	}
	logger := b.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	events := make([]Event, 0, len(segments)*8)
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbols, err := b.Source.Symbols(ctx, seg.Text)
		if err != nil {
			if !errors.Is(err, phoneme.ErrTranscriptionUnavailable) {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			if b.Policy == PolicyAbort {
				return nil, services.Wrap(services.ErrTranscription, "timeline", "phonemize",
					fmt.Sprintf("segment %d at %.3fs", i, seg.Start), err)
			}
			logging.WarnWithContext(logger, "segment transcription unavailable; substituting rest", "transcription_unavailable",
				logging.Int("segment", i),
				logging.Float64("start", seg.Start),
				logging.String(logging.FieldErrorHint, "install espeak-ng or check phonemizer.binary"),
				logging.String(logging.FieldImpact, "segment shows a closed mouth"),
				logging.Error(err),
			)
			events = append(events, Event{Time: seg.Start, Mouth: mouth.Rest})
			continue
		}
		events = append(events, distribute(seg, symbols)...)
	}
	logger.Debug("timeline built",
		logging.Int("segments", len(segments)),
		logging.Int("events", len(events)),
	)
	return events, nil
}

func distribute(seg Segment, symbols []mouth.Symbol) []Event {
	n := len(symbols)
	if n == 0 {
		return nil
	}
	step := (seg.End - seg.Start) / float64(n)
	out := make([]Event, n)
	for j, sym := range symbols {
		out[j] = Event{Time: seg.Start + float64(j)*step, Mouth: sym}
	}
	return out
}
