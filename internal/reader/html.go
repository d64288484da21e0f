package reader

import (
	"fmt"
	"os"
)

// HTMLFormat implements Format for standalone HTML documents. Headings
// become chapters.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

func (f *HTMLFormat) Import(filename string) (*Book, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	sec, err := parseMarkup(data)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var o outline
	for _, h := range sec.headings {
		o.add(h.level, h.text, h.pos)
	}

	return &Book{
		Title:    sec.title,
		Tokens:   sec.tokens,
		Chapters: o.chapters(),
		Anchors:  sec.anchors,
	}, nil
}
