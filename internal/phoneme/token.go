package phoneme

import (
	"strings"
	"unicode"
)

// Token is one IPA unit: a single rune, or WordGap between words.
type Token string

// WordGap separates words in a token stream.
const WordGap Token = " "

// Tokenize splits raw IPA output into tokens. Stress and length marks, tie
// bars, modifier letters, other combining marks and punctuation are dropped. Runs of whitespace
// collapse into one WordGap and leading/trailing gaps are trimmed.
func Tokenize(raw string) []Token {
	tokens := make([]Token, 0, len(raw))
	pendingGap := false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			pendingGap = len(tokens) > 0
			continue
		case dropRune(r):
			continue
		}
		if pendingGap {
			tokens = append(tokens, WordGap)
			pendingGap = false
		}
		tokens = append(tokens, Token(string(r)))
	}
	return tokens
}

func dropRune(r rune) bool {
	switch r {
	case 'ˈ', 'ˌ', 'ː', 'ˑ', '‿', '_', '-':
		return true
	}
	if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Lm, r) {
		return true
	}
	if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsDigit(r) || unicode.IsControl(r) {
		return true
	}
	return false
}

// Join renders tokens back into a display string.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(string(tok))
	}
	return b.String()
}
