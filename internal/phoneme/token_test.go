package phoneme

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Token
	}{
		{"empty", "", []Token{}},
		{"whitespace only", " \n\t ", []Token{}},
		{"stress and length", "ˈola", []Token{"o", "l", "a"}},
		{"word gap collapse", " ˈola   mˈundo\n", []Token{"o", "l", "a", " ", "m", "u", "n", "d", "o"}},
		{"length mark", "aː", []Token{"a"}},
		{"tie bar", "t͡ʃ", []Token{"t", "ʃ"}},
		{"punctuation", "a, b.", []Token{"a", " ", "b"}},
		{"modifier", "tʰa", []Token{"t", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join(Tokenize("ˈola mˈundo")); got != "ola mundo" {
		t.Fatalf("unexpected join %q", got)
	}
}
