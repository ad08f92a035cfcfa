package mouth

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Symbol identifies one mouth shape. The defined alphabet is A through H plus
// the rest shape X. Other single-character values can be decoded from
// interchange files; they simply have no artwork.
type Symbol byte

const (
	A    Symbol = 'A'
	B    Symbol = 'B'
	C    Symbol = 'C'
	D    Symbol = 'D'
	E    Symbol = 'E'
	F    Symbol = 'F'
	G    Symbol = 'G'
	H    Symbol = 'H'
	Rest Symbol = 'X'
)

var alphabet = [...]Symbol{A, B, C, D, E, F, G, H, Rest}

// All returns the alphabet in its fixed order, ending with Rest.
func All() []Symbol {
	out := make([]Symbol, len(alphabet))
	copy(out, alphabet[:])
	return out
}

// Valid reports whether s belongs to the alphabet.
func (s Symbol) Valid() bool {
	for _, v := range alphabet {
		if v == s {
			return true
		}
	}
	return false
}

func (s Symbol) String() string {
	return string(rune(s))
}

var descriptions = map[Symbol]string{
	A:    "open vowel",
	B:    "closed lips",
	C:    "tongue/teeth consonants",
	D:    "dental fricatives",
	E:    "close vowel",
	F:    "lip-teeth contact",
	G:    "velar",
	H:    "glide",
	Rest: "rest",
}

// Description names the articulation a symbol depicts, or "" outside the
// alphabet.
func (s Symbol) Description() string {
	return descriptions[s]
}

// Parse converts a one-character string into a Symbol.
func Parse(value string) (Symbol, error) {
	if len(value) != 1 {
		return 0, fmt.Errorf("mouth symbol must be a single ASCII character, got %q", value)
	}
	if value[0] >= utf8.RuneSelf || value[0] <= ' ' {
		return 0, fmt.Errorf("mouth symbol must be a printable ASCII character, got %q", value)
	}
	return Symbol(value[0]), nil
}

// MarshalJSON encodes the symbol as a one-character string.
func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts any one-character string.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode mouth symbol: %w", err)
	}
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML and UnmarshalYAML mirror the JSON form for YAML fixtures.
func (s Symbol) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Symbol) UnmarshalYAML(unmarshal func(any) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return fmt.Errorf("decode mouth symbol: %w", err)
	}
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
