package segment

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"One sentence", []string{"One sentence"}},
		{"First. Second! Third?", []string{"First", "Second", "Third"}},
		{"Really?! Yes... definitely.", []string{"Really", "Yes", "definitely"}},
		{"Trailing period.", []string{"Trailing period"}},
	}
	for _, tc := range cases {
		got := Split(tc.text)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Split(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestWords(t *testing.T) {
	words := Words("The  quick Brown fox THE")
	if len(words) != 4 {
		t.Errorf("expected 4 distinct words, got %d: %v", len(words), words)
	}
	for _, w := range []string{"the", "quick", "brown", "fox"} {
		if _, ok := words[w]; !ok {
			t.Errorf("expected word %q in set", w)
		}
	}
}

func TestWords_Empty(t *testing.T) {
	if words := Words(""); len(words) != 0 {
		t.Errorf("expected empty set, got %v", words)
	}
}
