// Package glossary holds user-highlighted words and their definitions.
package glossary

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey returns the lookup key of a word: NFC normalized, case
// folded, with punctuation and symbols removed.
func NormalizeKey(word string) string {
	s := cases.Fold().String(norm.NFC.String(word))
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Style is how a highlighted word is drawn.
type Style struct {
	Color     string `json:"color,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// DefaultStyle is applied to new highlights.
var DefaultStyle = Style{Color: "#f6c945", Underline: true}

// Entry is one glossary record.
type Entry struct {
	Word         string    `json:"word"`
	Definition   string    `json:"definition,omitempty"`
	Translation  string    `json:"translation,omitempty"`
	PartOfSpeech string    `json:"partOfSpeech,omitempty"`
	Example      string    `json:"example,omitempty"`
	Phonetic     string    `json:"phonetic,omitempty"`
	Style        Style     `json:"style"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Key is the entry's normalized word.
func (e Entry) Key() string {
	return NormalizeKey(e.Word)
}

// Index is an in-memory view of the glossary keyed by normalized word. It
// is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewIndex builds an index from entries.
func NewIndex(entries []Entry) *Index {
	ix := &Index{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		ix.entries[e.Key()] = e
	}
	return ix
}

// Lookup finds the entry for a token as it appears in text.
func (ix *Index) Lookup(tok string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	key := NormalizeKey(tok)
	if key == "" {
		return Entry{}, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[key]
	return e, ok
}

// Set adds or replaces an entry.
func (ix *Index) Set(e Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[e.Key()] = e
}

// Remove deletes the entry for word.
func (ix *Index) Remove(word string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, NormalizeKey(word))
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Entries returns all entries sorted by key.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
