package reader

import (
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/metcalfc/lector/internal/token"
)

// TextFormat implements Format for plain text. It is also the fallback for
// unknown extensions.
type TextFormat struct{}

func init() {
	Register(&TextFormat{})
}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *TextFormat) Import(filename string) (*Book, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &Book{
		Title:  titleFromFilename(filename),
		Tokens: token.Tokenize(NormalizeText(string(data))),
	}, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// NormalizeText prepares plain text for tokenizing: line endings become \n,
// whitespace inside lines collapses to single spaces, runs of blank lines
// become one paragraph break, and the result is trimmed.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
