package render

import "testing"

func TestPivot(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"an", 0},
		{"cat", 1},
		{"word", 1},
		{"hello", 2},
		{"reading", 3},
		{"über", 1},
	}
	for _, tt := range tests {
		if got := Pivot(tt.word); got != tt.want {
			t.Errorf("Pivot(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestSpritzAlignsPivot(t *testing.T) {
	tests := []struct {
		word                string
		before, focus, rest string
		pad                 int
	}{
		{"cat", "c", "a", "t", 9},
		{"a", "", "a", "", 10},
		{"reading", "rea", "d", "ing", 7},
		{"naïve", "na", "ï", "ve", 8},
	}
	for _, tt := range tests {
		l := Spritz(tt.word, 10)
		if l.Before != tt.before || l.Focus != tt.focus || l.After != tt.rest || l.Pad != tt.pad {
			t.Errorf("Spritz(%q) = %+v", tt.word, l)
		}
		// The pivot always lands on the anchor column.
		if l.Pad+len([]rune(l.Before)) != 10 {
			t.Errorf("Spritz(%q) pivot column = %d", tt.word, l.Pad+len([]rune(l.Before)))
		}
	}
}

func TestSpritzLongWordClampsPad(t *testing.T) {
	l := Spritz("incomprehensibilities", 3)
	if l.Pad != 0 {
		t.Errorf("Pad = %d, want 0", l.Pad)
	}
}
