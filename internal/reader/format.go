// Package reader imports documents into lector's token stream: plain text,
// Markdown, HTML, EPUB, PDF and DOCX, each with a chapter tree resolved to
// token positions.
package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/metcalfc/lector/internal/token"
)

// ErrEmpty is returned when a document yields no readable words.
var ErrEmpty = errors.New("no readable text")

// Book is the result of importing a file.
type Book struct {
	Title     string
	Author    string
	Tokens    []string
	Chapters  []Chapter
	Anchors   map[string]int
	Cover     []byte
	CoverType string

	// Warnings lists sections that were skipped during import.
	Warnings []string
}

// Format defines a file format importer.
type Format interface {
	Name() string
	Extensions() []string
	Import(filename string) (*Book, error)
}

var registry []Format

// Register adds a format importer to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ForFile returns the registered format for filename's extension, falling
// back to plain text.
func ForFile(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return &TextFormat{}
}

// Import reads filename with the matching format. A failed import returns
// no Book at all.
func Import(filename string) (*Book, error) {
	f := ForFile(filename)
	book, err := f.Import(filename)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", f.Name(), err)
	}
	if token.WordCount(book.Tokens) == 0 {
		return nil, fmt.Errorf("import %s: %w", f.Name(), ErrEmpty)
	}
	if book.Title == "" {
		book.Title = titleFromFilename(filename)
	}
	return book, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// appendSection concatenates a section's tokens onto dst, inserting a break
// between them unless one side already has one. It returns the offset the
// section starts at.
func appendSection(dst *[]string, section []string) int {
	if n := len(*dst); n > 0 && len(section) > 0 &&
		!token.IsBreak((*dst)[n-1]) && !token.IsBreak(section[0]) {
		*dst = append(*dst, token.Break)
	}
	offset := len(*dst)
	*dst = append(*dst, section...)
	return offset
}
