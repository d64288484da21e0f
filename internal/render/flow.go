package render

import (
	"math"
	"sort"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

// WindowSize is how many tokens around the active one are laid out.
const WindowSize = 3000

// Window returns the [start, end) span of size tokens around i. The span
// moves in half-window steps so the layout stays put while i advances
// within it.
func Window(n, i, size int) (start, end int) {
	if n <= size {
		return 0, n
	}
	half := max(size/2, 1)
	start = max(0, i/half*half-half/2)
	end = start + size
	if end > n {
		end = n
		start = n - size
	}
	return start, end
}

// Cell is one word placed on a line.
type Cell struct {
	Token int
	Col   int
	Text  string
}

// Line is one wrapped row. Start is the first token index on or after the
// row; empty rows mark paragraph gaps.
type Line struct {
	Start int
	Cells []Cell
}

// Wrap flows tokens[start:end] into lines at most width columns wide.
// Break tokens end the current line; a break on an empty line leaves a
// blank row.
func Wrap(tokens []string, start, end, width int) []Line {
	width = max(width, 1)
	var lines []Line
	cur := Line{Start: start}
	col := 0
	flush := func(next int) {
		lines = append(lines, cur)
		cur = Line{Start: next}
		col = 0
	}

	for i := start; i < end && i < len(tokens); i++ {
		tok := tokens[i]
		if token.IsBreak(tok) {
			flush(i + 1)
			continue
		}
		w := runewidth.StringWidth(tok)
		if col > 0 && col+1+w > width {
			flush(i)
		}
		if col > 0 {
			col++
		}
		if len(cur.Cells) == 0 {
			cur.Start = i
		}
		cur.Cells = append(cur.Cells, Cell{Token: i, Col: col, Text: tok})
		col += w
	}
	if len(cur.Cells) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// LineOf returns the line holding token i.
func LineOf(lines []Line, i int) int {
	k := sort.Search(len(lines), func(k int) bool { return lines[k].Start > i })
	return max(k-1, 0)
}

// PageOf returns the page of height lines that line falls on.
func PageOf(line, height int) int {
	return line / max(height, 1)
}

// Follow returns the top line that keeps the active token in view for the
// given auto-scroll granularity.
func Follow(lines []Line, tokens []string, active, top, height int, g settings.AutoScroll) int {
	if len(lines) == 0 || height <= 0 {
		return 0
	}
	line := LineOf(lines, active)
	visible := line >= top && line < top+height

	switch g {
	case settings.ScrollOff:
		return clampTop(top, len(lines), height)
	case settings.ScrollLine, settings.ScrollContinuous:
		top = line - height/3
	case settings.ScrollSentence:
		r := token.SentenceRange(tokens, active)
		first, last := LineOf(lines, r.Start), LineOf(lines, r.End)
		if !visible || first < top || last >= top+height {
			top = first
		}
	case settings.ScrollParagraph:
		if !visible || line >= top+height-1 {
			top = LineOf(lines, paragraphStart(tokens, active))
		}
	case settings.ScrollPage:
		top = PageOf(line, height) * height
		return max(top, 0)
	}
	return clampTop(top, len(lines), height)
}

func clampTop(top, n, height int) int {
	return max(0, min(top, n-height))
}

// paragraphStart is the first token after the nearest preceding break.
func paragraphStart(tokens []string, i int) int {
	for j := min(i, len(tokens)-1); j > 0; j-- {
		if token.IsBreak(tokens[j-1]) {
			return j
		}
	}
	return 0
}

// Creep scrolls continuously: the row offset glides toward its target at
// a steady rate and jumps when the target is more than a screen away.
type Creep struct {
	Offset float64
	Gain   float64
}

// NewCreep starts at row offset top.
func NewCreep(top int) *Creep {
	return &Creep{Offset: float64(top), Gain: 3}
}

// Step moves toward target rows over dt and returns the whole-row offset to
// draw.
func (c *Creep) Step(target, height int, dt time.Duration) int {
	t := float64(target)
	diff := t - c.Offset
	if math.Abs(diff) > float64(height) {
		c.Offset = t
	} else {
		c.Offset += diff * math.Min(1, c.Gain*dt.Seconds())
	}
	return int(math.Round(c.Offset))
}
