package reader

import (
	"strings"

	"github.com/metcalfc/lector/internal/token"
)

// Chapter is a node of a document's table of contents. Position is the
// token index the chapter starts at; children start inside the parent's span.
type Chapter struct {
	Title    string    `json:"title"`
	Position int       `json:"position"`
	Children []Chapter `json:"children,omitempty"`
}

// TOCEntry is a flattened chapter row for list displays.
type TOCEntry struct {
	Title     string
	Preview   string
	WordIndex int
	Level     int
}

// ActiveChapter returns the chain of chapters, outermost first, whose span
// contains pos. A chapter ends where its next sibling starts, or at its
// parent's end for the last sibling.
func ActiveChapter(chapters []Chapter, pos int) []Chapter {
	return activeIn(chapters, pos, -1)
}

// activeIn walks one sibling list. end is the parent's exclusive boundary,
// -1 meaning unbounded.
func activeIn(siblings []Chapter, pos, end int) []Chapter {
	for i := len(siblings) - 1; i >= 0; i-- {
		ch := siblings[i]
		if pos < ch.Position {
			continue
		}
		if end >= 0 && pos >= end {
			return nil
		}
		chEnd := end
		if i+1 < len(siblings) {
			chEnd = siblings[i+1].Position
		}
		return append([]Chapter{ch}, activeIn(ch.Children, pos, chEnd)...)
	}
	return nil
}

// ChapterEnd returns the exclusive end of the top-level chapter at index i,
// given the document length.
func ChapterEnd(chapters []Chapter, i, total int) int {
	if i+1 < len(chapters) {
		return chapters[i+1].Position
	}
	return total
}

// Flatten walks the chapter tree depth-first into TOC rows. Previews are the
// first words at each chapter's position.
func Flatten(chapters []Chapter, tokens []string) []TOCEntry {
	var entries []TOCEntry
	var walk func([]Chapter, int)
	walk = func(list []Chapter, level int) {
		for _, ch := range list {
			entries = append(entries, TOCEntry{
				Title:     ch.Title,
				Preview:   preview(tokens, ch.Position, 10),
				WordIndex: ch.Position,
				Level:     level,
			})
			walk(ch.Children, level+1)
		}
	}
	walk(chapters, 0)
	return entries
}

func preview(tokens []string, pos, n int) string {
	var words []string
	for i := pos; i >= 0 && i < len(tokens) && len(words) < n; i++ {
		if !token.IsBreak(tokens[i]) {
			words = append(words, tokens[i])
		}
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ") + "..."
}

// outline builds a chapter tree from headings seen in reading order.
type outline struct {
	root  outlineNode
	stack []*outlineNode
}

type outlineNode struct {
	ch       Chapter
	level    int
	children []*outlineNode
}

// add records a heading of the given level (1 is outermost) at pos.
func (o *outline) add(level int, title string, pos int) {
	if len(o.stack) == 0 {
		o.stack = []*outlineNode{&o.root}
	}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	n := &outlineNode{ch: Chapter{Title: title, Position: pos}, level: level}
	parent := o.stack[len(o.stack)-1]
	parent.children = append(parent.children, n)
	o.stack = append(o.stack, n)
}

func (o *outline) chapters() []Chapter {
	return convertOutline(o.root.children)
}

func convertOutline(nodes []*outlineNode) []Chapter {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Chapter, len(nodes))
	for i, n := range nodes {
		out[i] = n.ch
		out[i].Children = convertOutline(n.children)
	}
	return out
}
