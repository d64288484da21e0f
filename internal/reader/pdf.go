package reader

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/metcalfc/lector/internal/token"
)

// PDFFormat implements Format for PDF files. Each page becomes a chapter.
type PDFFormat struct{}

func init() {
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

func (f *PDFFormat) Import(filename string) (*Book, error) {
	file, r, err := pdflib.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	book := &Book{}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			book.Warnings = append(book.Warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		words := token.Tokenize(NormalizeText(text))
		if len(words) == 0 {
			continue
		}
		pos := appendSection(&book.Tokens, words)
		book.Chapters = append(book.Chapters, Chapter{
			Title:    fmt.Sprintf("Page %d", i),
			Position: pos,
		})
	}

	if title := strings.TrimSpace(pdfTitle(r)); title != "" {
		book.Title = title
	}
	return book, nil
}

func pdfTitle(r *pdflib.Reader) string {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return info.Key("Title").Text()
}
