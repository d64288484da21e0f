package token

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple sentence",
			input:    "Hello world this is a test",
			expected: []string{"Hello", "world", "this", "is", "a", "test"},
		},
		{
			name:     "multiple spaces",
			input:    "Hello    world     test",
			expected: []string{"Hello", "world", "test"},
		},
		{
			name:     "newlines become breaks",
			input:    "Hello\nworld",
			expected: []string{"Hello", Break, "world"},
		},
		{
			name:     "blank line keeps both breaks",
			input:    "one\n\ntwo",
			expected: []string{"one", Break, Break, "two"},
		},
		{
			name:     "tabs separate words",
			input:    "Hello\tworld",
			expected: []string{"Hello", "world"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "punctuation stays attached",
			input:    "Hello, world! How are you?",
			expected: []string{"Hello,", "world!", "How", "are", "you?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello   world.\nSecond  line here.",
		"  leading and trailing  \n\n  paragraph two ",
		"single",
		"a\n\n\nb",
	}
	for _, in := range inputs {
		tokens := Tokenize(in)
		if got, want := Join(tokens), NormalizeSpacing(in); got != want {
			t.Errorf("Join(Tokenize(%q)) = %q, want %q", in, got, want)
		}
		again := Tokenize(Join(tokens))
		if !reflect.DeepEqual(again, tokens) {
			t.Errorf("re-tokenizing %q changed tokens: %q vs %q", in, again, tokens)
		}
		if len(Tokenize(in)) != len(tokens) {
			t.Errorf("token count not stable for %q", in)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount(Tokenize("a b\nc")); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-5, 10, 0},
		{0, 10, 0},
		{9, 10, 9},
		{15, 10, 9},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.i, tt.n); got != tt.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}
