package frames

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"lipsync/internal/logging"
	"lipsync/internal/mouth"
	"lipsync/internal/services"
	"lipsync/internal/timeline"
)

// DefaultMaxSeconds is the longest timeline sequenced when Sequencer.MaxSeconds is unset.
const DefaultMaxSeconds = 4 * 60 * 60

// Resolver maps a mouth shape to the image file shown for it.
type Resolver interface {
	Lookup(symbol mouth.Symbol) (string, bool)
}

// Ref is one output frame.
type Ref struct {
	Index int          `json:"index"`
	Mouth mouth.Symbol `json:"mouth"`
	Path  string       `json:"path"`
}

// Interval is a span during which one mouth shape is shown.
type Interval struct {
	Start  float64      `json:"start"`
	End    float64      `json:"end"`
	Mouth  mouth.Symbol `json:"mouth"`
	Frames int          `json:"frames"`
}

// Result is the expanded frame list plus per-interval bookkeeping.
type Result struct {
	Frames    []Ref      `json:"frames"`
	FPS       int        `json:"fps"`
	Intervals []Interval `json:"intervals"`
	Skipped   []Interval `json:"skipped,omitempty"`
}

// Empty reports whether there is nothing to render.
func (r Result) Empty() bool {
	return len(r.Frames) == 0
}

// Duration returns the playback length in seconds.
func (r Result) Duration() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(len(r.Frames)) / float64(r.FPS)
}

// Run is a stretch of consecutive frames showing the same mouth.
type Run struct {
	Mouth mouth.Symbol `json:"mouth"`
	Start int          `json:"start"`
	Count int          `json:"count"`
}

// Runs groups consecutive frames that show the same image.
func (r Result) Runs() []Run {
	var runs []Run
	for _, f := range r.Frames {
		if n := len(runs); n > 0 && runs[n-1].Mouth == f.Mouth {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run{Mouth: f.Mouth, Start: f.Index, Count: 1})
	}
	return runs
}

// Sequencer turns timeline events into frames.
type Sequencer struct {
	FPS      int
	Resolver Resolver
	Logger   *slog.Logger
	// MaxSeconds rejects event times and end times past it. Zero means DefaultMaxSeconds.
	MaxSeconds float64
}

// Sequence expands events into frames.
//
// The span before the first event shows the rest shape. Interval i, from
// events[i-1] to events[i], shows events[i-1].Mouth. The last event is held
// until end when end is later, otherwise for a single frame. Every interval,
// including zero-length ones, yields at least one frame. Events must be
// ordered by time. Times past MaxSeconds are a validation error.
func (s Sequencer) Sequence(events []timeline.Event, end float64) (Result, error) {
	result := Result{FPS: s.FPS, Frames: []Ref{}}
	if len(events) == 0 || s.FPS <= 0 {
		return result, nil
	}
	if err := s.checkLength(events, end); err != nil {
		return Result{FPS: s.FPS}, err
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	fps := decimal.NewFromInt(int64(s.FPS))
	warned := make(map[mouth.Symbol]bool)

	emit := func(start, stop decimal.Decimal, sym mouth.Symbol, count int) {
		iv := Interval{Start: start.InexactFloat64(), End: stop.InexactFloat64(), Mouth: sym, Frames: count}
		path, ok := s.lookup(sym)
		if !ok {
			iv.Frames = 0
			result.Skipped = append(result.Skipped, iv)
			result.Intervals = append(result.Intervals, iv)
			if !warned[sym] {
				warned[sym] = true
				logging.WarnWithContext(logger, "mouth shape has no atlas image; interval skipped", "atlas_asset_missing",
					logging.String("mouth", sym.String()),
					logging.Float64("start", iv.Start),
					logging.String(logging.FieldErrorHint, "rebuild the atlas with 'lipsync atlas build'"),
					logging.String(logging.FieldImpact, "video omits frames for this mouth shape"),
				)
			}
			return
		}
		result.Intervals = append(result.Intervals, iv)
		for range count {
			result.Frames = append(result.Frames, Ref{Index: len(result.Frames), Mouth: sym, Path: path})
		}
	}

	prev := exact(events[0].Time)
	if prev.IsPositive() {
		emit(decimal.Zero, prev, mouth.Rest, frameCount(prev, fps))
	}
	for i := 1; i < len(events); i++ {
		cur := exact(events[i].Time)
		emit(prev, cur, events[i-1].Mouth, frameCount(cur.Sub(prev), fps))
		prev = cur
	}

	last := events[len(events)-1].Mouth
	if tail := exact(end); tail.GreaterThan(prev) {
		emit(prev, tail, last, frameCount(tail.Sub(prev), fps))
	} else {
		emit(prev, prev.Add(decimal.NewFromInt(1).Div(fps)), last, 1)
	}

	if len(result.Skipped) > 0 {
		logger.Debug("frame sequence degraded",
			logging.Int("skipped_intervals", len(result.Skipped)),
			logging.Int("frames", len(result.Frames)),
		)
	}
	return result, nil
}

func (s Sequencer) checkLength(events []timeline.Event, end float64) error {
	limit := s.MaxSeconds
	if limit <= 0 {
		limit = DefaultMaxSeconds
	}
	if !(end <= limit) {
		return services.Wrap(services.ErrValidation, "frames", "sequence",
			fmt.Sprintf("end time %v exceeds the %vs limit (video.max_seconds)", end, limit), nil)
	}
	for i, ev := range events {
		if !(ev.Time <= limit) {
			return services.Wrap(services.ErrValidation, "frames", "sequence",
				fmt.Sprintf("event %d at %vs exceeds the %vs limit (video.max_seconds)", i, ev.Time, limit), nil)
		}
	}
	return nil
}

func (s Sequencer) lookup(sym mouth.Symbol) (string, bool) {
	if s.Resolver == nil {
		return "", false
	}
	return s.Resolver.Lookup(sym)
}

// frameCount returns max(1, round(duration*fps)) with halves rounded away
// from zero.
func frameCount(duration, fps decimal.Decimal) int {
	n := duration.Mul(fps).Round(0).IntPart()
	if n < 1 {
		return 1
	}
	return int(n)
}

// exact converts a timestamp using its shortest decimal representation.
func exact(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'g', -1, 64))
	if err != nil {
		return decimal.NewFromFloat(v)
	}
	return d
}
