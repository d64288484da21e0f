package render

import (
	"testing"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

func TestWordWindow(t *testing.T) {
	tests := []struct {
		v     float64
		n     int
		total int
		want  token.Range
	}{
		{2.7, 1, 10, token.Range{Start: 2, End: 2}},
		{2.2, 3, 10, token.Range{Start: 2, End: 4}},
		{8, 5, 10, token.Range{Start: 8, End: 9}},
		{-1, 1, 10, token.Range{Start: 0, End: 0}},
	}
	for _, tt := range tests {
		if got := WordWindow(tt.v, tt.n, tt.total); got != tt.want {
			t.Errorf("WordWindow(%v, %d) = %+v, want %+v", tt.v, tt.n, got, tt.want)
		}
	}
}

func TestHighlighterPriority(t *testing.T) {
	tokens := token.Tokenize("The rare word. Another rare one.")
	// 0 The 1 rare 2 word. 3 Another 4 rare 5 one.
	gl := glossary.NewIndex([]glossary.Entry{{Word: "rare", Style: glossary.Style{Color: "#f00"}}})
	ms := settings.ModeSettings{Highlight: settings.HighlightWord, HighlightWords: 1, AmbientSentence: true}
	h := NewHighlighter(tokens, 1.4, ms, gl)

	tests := []struct {
		i    int
		want Layer
	}{
		{0, LayerSentence},
		{1, LayerActive},
		{2, LayerSentence},
		{3, LayerNone},
		{4, LayerGlossary},
	}
	for _, tt := range tests {
		got, style := h.Layer(tt.i)
		if got != tt.want {
			t.Errorf("Layer(%d) = %v, want %v", tt.i, got, tt.want)
		}
		if got == LayerGlossary && style.Color != "#f00" {
			t.Errorf("glossary style = %+v", style)
		}
	}
}

func TestHighlighterSentenceScope(t *testing.T) {
	tokens := token.Tokenize("One two. Three four.")
	ms := settings.ModeSettings{Highlight: settings.HighlightSentence}
	h := NewHighlighter(tokens, 3, ms, nil)
	if got := h.Active(); got != (token.Range{Start: 2, End: 3}) {
		t.Errorf("Active = %+v", got)
	}
	if l, _ := h.Layer(0); l != LayerNone {
		t.Errorf("Layer(0) = %v", l)
	}
}
