package phoneme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"lipsync/internal/language"
	"lipsync/internal/services"
)

// ErrTranscriptionUnavailable reports that no phonemizer could transcribe the
// text. It matches services.ErrExternalTool under errors.Is.
var ErrTranscriptionUnavailable = fmt.Errorf("%w: transcription unavailable", services.ErrExternalTool)

// Phonemizer converts text to IPA tokens.
type Phonemizer interface {
	Phonemize(ctx context.Context, text, lang string) ([]Token, error)
}

type outputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Espeak runs espeak-ng (or a compatible binary) to produce IPA.
type Espeak struct {
	binary  string
	timeout time.Duration
	run     outputRunner
}

// EspeakOption customizes an Espeak phonemizer.
type EspeakOption func(*Espeak)

// WithOutputRunner injects a custom command runner (primarily for tests).
func WithOutputRunner(r func(ctx context.Context, name string, args ...string) ([]byte, error)) EspeakOption {
	return func(e *Espeak) {
		if r != nil {
			e.run = r
		}
	}
}

// WithTimeout bounds each transcription call.
func WithTimeout(d time.Duration) EspeakOption {
	return func(e *Espeak) {
		e.timeout = d
	}
}

// NewEspeak constructs an Espeak phonemizer for binary.
func NewEspeak(binary string, opts ...EspeakOption) *Espeak {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "espeak-ng"
	}
	e := &Espeak{binary: binary, run: defaultOutputRunner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the binary the phonemizer invokes.
func (e *Espeak) Name() string {
	return e.binary
}

// Phonemize lowercases text for the language, transcribes it and tokenizes
// the IPA output. Blank text returns no tokens without running the binary.
func (e *Espeak) Phonemize(ctx context.Context, text, lang string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	lowered := cases.Lower(language.Tag(lang)).String(text)
	voice := language.Voice(lang)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	output, err := e.run(ctx, e.binary, "-q", "--ipa", "-v", voice, "--", lowered)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (voice %s): %w", ErrTranscriptionUnavailable, e.binary, voice, err)
	}
	return Tokenize(string(output)), nil
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
