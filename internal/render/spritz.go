// Package render lays out tokens for each presentation mode. Everything here
// is a pure function of the token stream, an index and settings; nothing
// writes back to playback.
package render

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Pivot returns the rune index of word's focal character,
// floor((L+1)/2) - 1 for a word of L runes.
func Pivot(word string) int {
	n := utf8.RuneCountInString(word)
	if n == 0 {
		return 0
	}
	return (n+1)/2 - 1
}

// SpritzLayout is one word split around its pivot. Pad is the number of
// columns to indent so the pivot lands on the anchor column.
type SpritzLayout struct {
	Before string
	Focus  string
	After  string
	Pad    int
}

// Spritz splits word around its pivot and aligns the pivot to anchor.
func Spritz(word string, anchor int) SpritzLayout {
	runes := []rune(word)
	if len(runes) == 0 {
		return SpritzLayout{Pad: max(anchor, 0)}
	}
	p := Pivot(word)
	l := SpritzLayout{
		Before: string(runes[:p]),
		Focus:  string(runes[p]),
		After:  string(runes[p+1:]),
	}
	l.Pad = max(anchor-runewidth.StringWidth(l.Before), 0)
	return l
}
