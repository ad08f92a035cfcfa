package phoneme

import (
	"context"

	"lipsync/internal/mouth"
)

// MapToMouth maps each token to its mouth shape. The result always has the
// same length as tokens. Rounded vowels fold into A or E since the alphabet
// has no dedicated rounded shape.
func MapToMouth(tokens []Token) []mouth.Symbol {
	out := make([]mouth.Symbol, len(tokens))
	for i, tok := range tokens {
		out[i] = shapeFor(tok)
	}
	return out
}

func shapeFor(tok Token) mouth.Symbol {
	switch tok {
	case "a", "ɑ", "æ", "ʌ", "ə", "ɐ", "o", "ɔ":
		return mouth.A
	case "e", "ɛ", "ɪ", "i", "ʊ", "u", "y":
		return mouth.E
	case "p", "b", "m":
		return mouth.B
	case "f", "v":
		return mouth.F
	case "θ", "ð":
		return mouth.D
	case "t", "d", "n", "l", "r", "ɾ", "ʃ", "ʒ", "s", "z", "ɲ":
		return mouth.C
	case "k", "g", "ɡ", "ŋ", "x", "ɣ":
		return mouth.G
	case "h", "w", "j":
		return mouth.H
	default:
		return mouth.Rest
	}
}

// Mapper converts text to mouth shapes for one language.
type Mapper struct {
	Phonemizer Phonemizer
	Language   string
}

// Symbols phonemizes text and maps the tokens to mouth shapes. Empty text
// yields no symbols.
func (m Mapper) Symbols(ctx context.Context, text string) ([]mouth.Symbol, error) {
	tokens, err := m.Phonemizer.Phonemize(ctx, text, m.Language)
	if err != nil {
		return nil, err
	}
	return MapToMouth(tokens), nil
}
