package reader

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/metcalfc/lector/internal/token"
)

// DOCXFormat implements Format for .docx files. Heading styles become
// chapters.
type DOCXFormat struct{}

func init() {
	Register(&DOCXFormat{})
}

func (f *DOCXFormat) Name() string         { return "DOCX" }
func (f *DOCXFormat) Extensions() []string { return []string{".docx"} }

func (f *DOCXFormat) Import(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	book := &Book{}
	var o outline
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			o.add(level, text, len(book.Tokens))
			if book.Title == "" && level == 1 {
				book.Title = text
			}
		}
		book.Tokens = append(book.Tokens, strings.Fields(text)...)
		book.Tokens = append(book.Tokens, token.Break)
	}
	book.Chapters = o.chapters()
	return book, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if strings.HasPrefix(style, "heading") && len(style) == len("heading")+1 {
		if d := style[len(style)-1]; d >= '1' && d <= '6' {
			return int(d - '0')
		}
	}
	if style == "title" {
		return 1
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
