package playback

import (
	"sort"
	"strings"

	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

// Chunk is a contiguous run of tokens spoken as one utterance.
type Chunk struct {
	Start, End int // token span [Start, End)
	Text       string

	offsets []int // byte offset of each word in Text
	indices []int // token index of each word
}

// Empty reports whether the chunk has no words to speak.
func (c Chunk) Empty() bool {
	return len(c.indices) == 0
}

// TokenAt maps a byte offset reported by the speech engine back to the
// token being spoken.
func (c Chunk) TokenAt(offset int) int {
	if c.Empty() {
		return c.Start
	}
	k := sort.Search(len(c.offsets), func(k int) bool { return c.offsets[k] > offset }) - 1
	if k < 0 {
		k = 0
	}
	return c.indices[k]
}

func newChunk(tokens []string, start, end int) Chunk {
	c := Chunk{Start: start, End: end}
	var sb strings.Builder
	for i := start; i < end; i++ {
		if token.IsBreak(tokens[i]) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		c.offsets = append(c.offsets, sb.Len())
		c.indices = append(c.indices, i)
		sb.WriteString(tokens[i])
	}
	c.Text = sb.String()
	return c
}

// NextChunk returns the chunk starting at from for the given repeat
// granularity. Without a repeat mode a chunk holds up to chunkWords words
// and is cut back to the last sentence end inside it when there is one.
func NextChunk(tokens []string, from int, mode settings.RepeatMode, chunkWords int) Chunk {
	if from < 0 {
		from = 0
	}
	if from >= len(tokens) {
		return Chunk{Start: len(tokens), End: len(tokens)}
	}

	switch mode {
	case settings.RepeatWord:
		i := from
		for i < len(tokens) && token.IsBreak(tokens[i]) {
			i++
		}
		return newChunk(tokens, from, min(i+1, len(tokens)))
	case settings.RepeatPhrase:
		return newChunk(tokens, from, token.PhraseRange(tokens, from).End+1)
	case settings.RepeatSentence:
		return newChunk(tokens, from, token.SentenceRange(tokens, from).End+1)
	}

	if chunkWords <= 0 {
		chunkWords = 200
	}
	words, lastSentence := 0, -1
	end := from
	for end < len(tokens) && words < chunkWords {
		tok := tokens[end]
		if !token.IsBreak(tok) {
			words++
			if token.EndsSentence(tok) {
				lastSentence = end
			}
		}
		end++
	}
	if end < len(tokens) && lastSentence >= 0 {
		end = lastSentence + 1
	}
	return newChunk(tokens, from, end)
}
