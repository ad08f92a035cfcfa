package phoneme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lipsync/internal/logging"
)

// Tier names one phonemizer inside a Chain.
type Tier struct {
	Name       string
	Phonemizer Phonemizer
}

// Chain tries each tier in order and returns the first successful result.
type Chain struct {
	Tiers  []Tier
	Logger *slog.Logger
}

// NewChain builds an espeak chain from an ordered list of binaries.
func NewChain(logger *slog.Logger, binaries []string, opts ...EspeakOption) *Chain {
	chain := &Chain{Logger: logger}
	for _, bin := range binaries {
		bin = strings.TrimSpace(bin)
		if bin == "" {
			continue
		}
		chain.Tiers = append(chain.Tiers, Tier{Name: bin, Phonemizer: NewEspeak(bin, opts...)})
	}
	return chain
}

// Phonemize implements Phonemizer.
func (c *Chain) Phonemize(ctx context.Context, text, lang string) ([]Token, error) {
	tokens, _, err := c.PhonemizeTiered(ctx, text, lang)
	return tokens, err
}

// PhonemizeTiered returns the tokens along with the tier that produced them.
// When every tier fails the error wraps ErrTranscriptionUnavailable and lists
// each attempt.
func (c *Chain) PhonemizeTiered(ctx context.Context, text, lang string) ([]Token, string, error) {
	if len(c.Tiers) == 0 {
		return nil, "", fmt.Errorf("%w: no phonemizer configured", ErrTranscriptionUnavailable)
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := make([]string, 0, len(c.Tiers))
	var errs []error
	for i, tier := range c.Tiers {
		tokens, err := tier.Phonemizer.Phonemize(ctx, text, lang)
		if err == nil {
			if i > 0 {
				logger.Info("phonemizer fallback used",
					logging.String("tier", tier.Name),
					logging.String("skipped", strings.Join(attempts, ",")),
				)
			}
			return tokens, tier.Name, nil
		}
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrTranscriptionUnavailable, ctx.Err())
		}
		attempts = append(attempts, tier.Name)
		errs = append(errs, err)
		logger.Debug("phonemizer tier failed",
			logging.String("tier", tier.Name),
			logging.Error(err),
		)
	}
	return nil, "", fmt.Errorf("%w: tried %s: %w", ErrTranscriptionUnavailable, strings.Join(attempts, ", "), errors.Join(errs...))
}
