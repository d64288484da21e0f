package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/sahilm/fuzzy"

	"github.com/metcalfc/lector/internal/state"
)

// docItem is a library row.
type docItem struct {
	doc state.Document
}

func (i docItem) Title() string { return i.doc.Title }

func (i docItem) Description() string {
	var parts []string
	if i.doc.Author != "" {
		parts = append(parts, i.doc.Author)
	}
	parts = append(parts, fmt.Sprintf("%d%%", int(i.doc.Progress()*100)))
	parts = append(parts, fmt.Sprintf("%d tokens", i.doc.TokenCount))
	return strings.Join(parts, " · ")
}

func (i docItem) FilterValue() string {
	return strings.TrimSpace(i.doc.Title + " " + i.doc.Author)
}

// fuzzyFilter ranks list items with sahilm/fuzzy, best match first.
func fuzzyFilter(term string, targets []string) []list.Rank {
	matches := fuzzy.Find(term, targets)
	ranks := make([]list.Rank, len(matches))
	for i, m := range matches {
		ranks[i] = list.Rank{Index: m.Index, MatchedIndexes: m.MatchedIndexes}
	}
	return ranks
}

// Search returns the documents whose title or author fuzzily matches
// query, best match first.
func Search(docs []state.Document, query string) []state.Document {
	targets := make([]string, len(docs))
	for i, d := range docs {
		targets[i] = docItem{d}.FilterValue()
	}
	var out []state.Document
	for _, r := range fuzzyFilter(query, targets) {
		out = append(out, docs[r.Index])
	}
	return out
}

func newLibraryList(docs []state.Document, width, height int) list.Model {
	items := make([]list.Item, len(docs))
	for i, d := range docs {
		items[i] = docItem{d}
	}
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Library"
	l.Filter = fuzzyFilter
	l.SetStatusBarItemName("book", "books")
	l.DisableQuitKeybindings()
	return l
}

// tocItem is one row of the contents overlay.
type tocItem struct {
	title   string
	preview string
	index   int
}

func (i tocItem) Title() string       { return i.title }
func (i tocItem) Description() string { return i.preview }
func (i tocItem) FilterValue() string { return strings.TrimSpace(i.title) }
