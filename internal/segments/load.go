package segments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lipsync/internal/services"
	"lipsync/internal/textutil"
	"lipsync/internal/timeline"
)

// Format identifies a segment file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatSRT  Format = "srt"
)

// DetectFormat picks a format from the file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".srt":
		return FormatSRT
	default:
		return FormatJSON
	}
}

// Load reads and validates the segment file at path.
func Load(path string) ([]timeline.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "segments", "load", path, err)
		}
		return nil, fmt.Errorf("read segments: %w", err)
	}
	segs, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segs, nil
}

// Parse decodes data in the given format and validates each segment.
func Parse(data []byte, format Format) ([]timeline.Segment, error) {
	var (
		segs []timeline.Segment
		err  error
	)
	switch format {
	case FormatYAML:
		segs, err = parseYAML(data)
	case FormatSRT:
		segs, err = parseSRT(string(data))
	default:
		segs, err = parseJSON(data)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "segments", "parse", string(format), err)
	}
	for i := range segs {
		segs[i].Text = textutil.CollapseSpace(segs[i].Text)
		if err := segs[i].Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "segments", "validate", fmt.Sprintf("segment %d", i), err)
		}
	}
	return segs, nil
}

type whisperXDocument struct {
	Segments []timeline.Segment `json:"segments"`
}

func parseJSON(data []byte) ([]timeline.Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []timeline.Segment{}, nil
	}
	if trimmed[0] == '{' {
		var doc whisperXDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode whisperx json: %w", err)
		}
		if doc.Segments == nil {
			return nil, fmt.Errorf("json object has no \"segments\" array")
		}
		return doc.Segments, nil
	}
	var segs []timeline.Segment
	if err := json.Unmarshal(trimmed, &segs); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if segs == nil {
		segs = []timeline.Segment{}
	}
	return segs, nil
}

func parseYAML(data []byte) ([]timeline.Segment, error) {
	var segs []timeline.Segment
	if err := yaml.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if segs == nil {
		segs = []timeline.Segment{}
	}
	return segs, nil
}
