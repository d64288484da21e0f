package render

import (
	"math"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

// Layer is the highlight drawn on a token. Higher layers win.
type Layer int

const (
	LayerNone Layer = iota
	LayerSentence
	LayerGlossary
	LayerActive
)

// WordWindow returns the n tokens starting at floor(v), clamped.
func WordWindow(v float64, n, total int) token.Range {
	if total == 0 {
		return token.Range{}
	}
	start := token.Clamp(int(math.Floor(v)), total)
	return token.Range{Start: start, End: min(start+max(n, 1)-1, total-1)}
}

// Highlighter decides the layer of each token for one frame.
type Highlighter struct {
	active   token.Range
	ambient  token.Range
	hasAmb   bool
	tokens   []string
	glossary *glossary.Index
}

// NewHighlighter builds the highlight state for visual index v.
func NewHighlighter(tokens []string, v float64, ms settings.ModeSettings, gl *glossary.Index) Highlighter {
	h := Highlighter{tokens: tokens, glossary: gl}
	if len(tokens) == 0 {
		return h
	}
	sentence := token.SentenceRange(tokens, int(math.Floor(v)))
	if ms.Highlight == settings.HighlightSentence {
		h.active = sentence
	} else {
		h.active = WordWindow(v, ms.HighlightWords, len(tokens))
		h.ambient, h.hasAmb = sentence, ms.AmbientSentence
	}
	return h
}

// Active returns the range drawn with the active highlight.
func (h Highlighter) Active() token.Range {
	return h.active
}

// Layer returns the topmost layer for token i and, for glossary words,
// their style.
func (h Highlighter) Layer(i int) (Layer, glossary.Style) {
	if len(h.tokens) == 0 {
		return LayerNone, glossary.Style{}
	}
	if h.active.Contains(i) {
		return LayerActive, glossary.Style{}
	}
	if i >= 0 && i < len(h.tokens) {
		if e, ok := h.glossary.Lookup(h.tokens[i]); ok {
			return LayerGlossary, e.Style
		}
	}
	if h.hasAmb && h.ambient.Contains(i) {
		return LayerSentence, glossary.Style{}
	}
	return LayerNone, glossary.Style{}
}
