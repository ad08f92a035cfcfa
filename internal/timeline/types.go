package timeline

import (
	"fmt"

	"lipsync/internal/mouth"
)

// Segment is a span of speech with its text. End must not precede Start.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Duration returns the segment span in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Validate rejects segments whose end precedes their start.
func (s Segment) Validate() error {
	if s.End < s.Start {
		return fmt.Errorf("segment end %.3f precedes start %.3f", s.End, s.Start)
	}
	if s.Start < 0 {
		return fmt.Errorf("segment start %.3f is negative", s.Start)
	}
	return nil
}

// Event marks the moment a mouth shape becomes active.
type Event struct {
	Time  float64      `json:"time"`
	Mouth mouth.Symbol `json:"mouth"`
}

// End returns the latest segment end, or 0 when there are no segments.
func End(segments []Segment) float64 {
	var end float64
	for _, seg := range segments {
		if seg.End > end {
			end = seg.End
		}
	}
	return end
}
