package segments

import (
	"fmt"
	"strconv"
	"strings"

	"lipsync/internal/textutil"
	"lipsync/internal/timeline"
)

// parseSRT converts SRT cues into segments. Cue text is stripped of markup and
// folded onto one line. Blocks without a timing line are skipped.
func parseSRT(content string) ([]timeline.Segment, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.TrimSpace(content)
	segs := []timeline.Segment{}
	if content == "" {
		return segs, nil
	}

	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}
		parts := strings.SplitN(lines[timing], "-->", 2)
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			return nil, err
		}
		// Position hints such as "X1:40 X2:600" may follow the end time.
		endFields := strings.Fields(parts[1])
		if len(endFields) == 0 {
			return nil, fmt.Errorf("missing end timestamp in %q", lines[timing])
		}
		end, err := parseSRTTimestamp(endFields[0])
		if err != nil {
			return nil, err
		}
		text := textutil.CleanCueText(strings.Join(lines[timing+1:], "\n"))
		segs = append(segs, timeline.Segment{Start: start, End: end, Text: text})
	}
	return segs, nil
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// SRT uses a comma before milliseconds; accept the WebVTT period too.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
