package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lipsync/internal/fileutil"
	"lipsync/internal/services"
)

// Encode writes events as an indented JSON array.
func Encode(w io.Writer, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	return nil
}

// Decode reads a JSON array of events.
func Decode(r io.Reader) ([]Event, error) {
	var events []Event
	dec := json.NewDecoder(r)
	if err := dec.Decode(&events); err != nil {
		return nil, services.Wrap(services.ErrValidation, "timeline", "decode", "invalid lip-sync file", err)
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// WriteFile atomically writes events to path.
func WriteFile(path string, events []Event) error {
	return fileutil.WriteAtomicFunc(path, 0o644, func(w io.Writer) error {
		return Encode(w, events)
	})
}

// ReadFile loads events from path.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "timeline", "read", path, err)
		}
		return nil, fmt.Errorf("open timeline: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
