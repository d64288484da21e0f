// Package token splits document text into the ordered token stream every
// other part of lector addresses by index.
//
// A token is either a word or a line break. Positions (chapter anchors,
// reading progress) are persisted as raw indices into this stream, so the
// tokenizer must stay deterministic for a given text.
package token

import (
	"strings"
	"unicode"
)

// Break is the token emitted for every explicit newline.
const Break = "\n"

// IsBreak reports whether tok is a line-break token.
func IsBreak(tok string) bool {
	return tok == Break
}

// Tokenize splits text into words and break tokens. Each newline becomes a
// break token; every other run of whitespace separates words.
func Tokenize(text string) []string {
	tokens := []string{}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			tokens = append(tokens, Break)
		}
		tokens = append(tokens, strings.FieldsFunc(line, unicode.IsSpace)...)
	}
	return tokens
}

// Join renders tokens back to text: words separated by single spaces, break
// tokens as bare newlines.
func Join(tokens []string) string {
	var sb strings.Builder
	lineStart := true
	for _, tok := range tokens {
		if IsBreak(tok) {
			sb.WriteString("\n")
			lineStart = true
			continue
		}
		if !lineStart {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
		lineStart = false
	}
	return sb.String()
}

// NormalizeSpacing collapses whitespace inside every line to single spaces
// and trims each line, keeping the newlines. It is the form Join(Tokenize(s))
// reproduces.
func NormalizeSpacing(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
	}
	return strings.Join(lines, "\n")
}

// WordCount returns the number of non-break tokens.
func WordCount(tokens []string) int {
	n := 0
	for _, tok := range tokens {
		if !IsBreak(tok) {
			n++
		}
	}
	return n
}

// Clamp bounds i to a valid index for a stream of n tokens. An empty stream
// clamps to 0.
func Clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
