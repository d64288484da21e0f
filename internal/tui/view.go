package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/render"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

// wheelReach is how many tokens either side of the focus are laid on the
// wheel.
const wheelReach = 40

func displayWord(tok string) string {
	if token.IsBreak(tok) {
		return "¶"
	}
	return tok
}

// spritzView renders word with its pivot on the center column.
func spritzView(word string, width int, gl *glossary.Index) string {
	base := wordStyle
	if e, ok := gl.Lookup(word); ok {
		base = glossaryStyle(e.Style)
	}
	l := render.Spritz(displayWord(word), width/2)
	marker := strings.Repeat(" ", width/2) + dimStyle.Render("▾")
	line := strings.Repeat(" ", l.Pad) +
		base.Render(l.Before) +
		erpStyle.Render(l.Focus) +
		base.Render(l.After)
	return marker + "\n" + line
}

// wheelView projects the characters around fractional index f onto a
// drum: columns compress and fade toward the edges.
func wheelView(tokens []string, f float64, width int) string {
	if len(tokens) == 0 || width < 3 {
		return ""
	}
	i := int(math.Floor(f))
	strip := render.NewStrip(tokens, i-wheelReach, i+wheelReach+1)

	center := width / 2
	radius := float64(width/2 - 1)
	span := int(radius*1.5) + 1
	glyphs := render.Wheel(strip, f, span, 90/(radius*1.5))

	cells := make([]string, width)
	front := make([]float64, width)
	for x := range front {
		front[x] = math.Inf(1)
	}
	for _, g := range glyphs {
		rad := g.Angle * math.Pi / 180
		x := center + int(math.Round(radius*math.Sin(rad)))
		if x < 0 || x >= width {
			continue
		}
		a := math.Abs(g.Angle)
		if a >= front[x] {
			continue
		}
		front[x] = a
		st := lipgloss.NewStyle().Foreground(gray(math.Cos(rad)))
		if math.Abs(g.Distance) < 0.5 {
			st = erpStyle
		}
		cells[x] = st.Render(string(g.Rune))
	}
	for x, c := range cells {
		if c == "" {
			cells[x] = " "
		}
	}
	marker := strings.Repeat(" ", center) + dimStyle.Render("▾")
	return marker + "\n" + strings.Join(cells, "")
}

// viralView builds up the current chunk word by word, each word in its
// own color and weight on one of three rows.
func viralView(tokens []string, i int, ms settings.ModeSettings, width int) string {
	if len(tokens) == 0 {
		return ""
	}
	r := render.ViralChunk(tokens, i, ms.ChunkSize, ms.SentenceChunks)
	var rows [3]strings.Builder
	col := 0
	for j := r.Start; j <= min(i, r.End); j++ {
		if token.IsBreak(tokens[j]) {
			continue
		}
		vs := render.StyleFor(j)
		st := lipgloss.NewStyle().
			Foreground(lipgloss.Color(vs.Color)).
			Bold(vs.Scale >= 1.2).
			Italic(vs.Rotation < -6).
			Underline(vs.Rotation > 6)
		row := 1 + int(math.Round(vs.OffsetY))
		w := runewidth.StringWidth(tokens[j])
		for k := range rows {
			if col > 0 {
				rows[k].WriteByte(' ')
			}
			if k == row {
				rows[k].WriteString(st.Render(tokens[j]))
			} else {
				rows[k].WriteString(strings.Repeat(" ", w))
			}
		}
		col += w + 1
	}
	block := rows[0].String() + "\n" + rows[1].String() + "\n" + rows[2].String()
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}

// flowView renders height wrapped lines starting at top, styling each word
// by its highlight layer.
func flowView(lines []render.Line, top, height int, h render.Highlighter) string {
	out := make([]string, 0, height)
	for row := range height {
		li := top + row
		if li < 0 || li >= len(lines) {
			out = append(out, "")
			continue
		}
		var sb strings.Builder
		sb.WriteByte(' ')
		col := 0
		for _, c := range lines[li].Cells {
			if c.Col > col {
				sb.WriteString(strings.Repeat(" ", c.Col-col))
				col = c.Col
			}
			layer, gs := h.Layer(c.Token)
			switch layer {
			case render.LayerActive:
				sb.WriteString(activeStyle.Render(c.Text))
			case render.LayerGlossary:
				sb.WriteString(glossaryStyle(gs).Render(c.Text))
			case render.LayerSentence:
				sb.WriteString(sentenceStyle.Render(c.Text))
			default:
				sb.WriteString(c.Text)
			}
			col += runewidth.StringWidth(c.Text)
		}
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}
