package token

import (
	"strings"
	"unicode/utf8"
)

// Range is an inclusive span of token indices.
type Range struct {
	Start int
	End   int
}

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

// Len returns the number of tokens in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

const closers = "\"')]}”’»"

// EndsSentence reports whether tok terminates a sentence. Break tokens end
// sentences too.
func EndsSentence(tok string) bool {
	if IsBreak(tok) {
		return true
	}
	trimmed := strings.TrimRight(tok, closers)
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	switch last {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

// EndsPhrase reports whether tok closes a phrase: a sentence end, or a word
// ending in a clause separator.
func EndsPhrase(tok string) bool {
	if EndsSentence(tok) {
		return true
	}
	trimmed := strings.TrimRight(tok, closers)
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	switch last {
	case ',', ';', ':', '—', '–', '，', '；':
		return true
	}
	return false
}

// SentenceRange returns the sentence containing index i. A break token is a
// sentence of its own when nothing precedes it on the line. Running it again
// from the returned Start yields the same range.
func SentenceRange(tokens []string, i int) Range {
	if len(tokens) == 0 {
		return Range{}
	}
	i = Clamp(i, len(tokens))

	start := i
	for start > 0 && !EndsSentence(tokens[start-1]) {
		start--
	}

	end := i
	for end < len(tokens)-1 && !EndsSentence(tokens[end]) {
		end++
	}
	return Range{Start: start, End: end}
}

// PhraseRange is SentenceRange at clause granularity.
func PhraseRange(tokens []string, i int) Range {
	if len(tokens) == 0 {
		return Range{}
	}
	i = Clamp(i, len(tokens))

	start := i
	for start > 0 && !EndsPhrase(tokens[start-1]) {
		start--
	}

	end := i
	for end < len(tokens)-1 && !EndsPhrase(tokens[end]) {
		end++
	}
	return Range{Start: start, End: end}
}

// SentenceStarts returns the indices of tokens that start sentences.
func SentenceStarts(tokens []string) []int {
	if len(tokens) == 0 {
		return nil
	}
	starts := []int{}
	for i := 0; i < len(tokens); {
		r := SentenceRange(tokens, i)
		if !IsBreak(tokens[r.Start]) {
			starts = append(starts, r.Start)
		}
		i = r.End + 1
	}
	return starts
}

// PrevSentence returns the index a backward sentence seek from i lands on.
// More than two tokens into a sentence it rewinds to that sentence's start,
// otherwise to the start of the previous one.
func PrevSentence(tokens []string, i int) int {
	if len(tokens) == 0 {
		return 0
	}
	i = Clamp(i, len(tokens))
	cur := SentenceRange(tokens, i)
	if i-cur.Start > 2 {
		return cur.Start
	}

	j := cur.Start - 1
	for j >= 0 && IsBreak(tokens[j]) {
		j--
	}
	if j < 0 {
		return cur.Start
	}
	return SentenceRange(tokens, j).Start
}

// NextSentence returns the start of the sentence after the one containing i,
// skipping break tokens. At the last sentence it clamps to the final index.
func NextSentence(tokens []string, i int) int {
	if len(tokens) == 0 {
		return 0
	}
	i = Clamp(i, len(tokens))
	j := SentenceRange(tokens, i).End + 1
	for j < len(tokens) && IsBreak(tokens[j]) {
		j++
	}
	if j >= len(tokens) {
		return len(tokens) - 1
	}
	return j
}
