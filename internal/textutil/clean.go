package textutil

import (
	"regexp"
	"strings"
)

var (
	markupPattern     = regexp.MustCompile(`<[^>]*>|\{\\[^}]*\}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripMarkup removes HTML-style tags (<i>, <font ...>) and ASS override
// blocks ({\an8}) commonly embedded in subtitle cue text.
func StripMarkup(text string) string {
	return markupPattern.ReplaceAllString(text, "")
}

// CollapseSpace folds runs of whitespace (including newlines) into a single
// space and trims the result.
func CollapseSpace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// CleanCueText applies StripMarkup then CollapseSpace.
func CleanCueText(text string) string {
	return CollapseSpace(StripMarkup(text))
}
