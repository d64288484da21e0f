package reader

import (
	"os"
	"strings"

	"github.com/metcalfc/lector/internal/token"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Import parses the file with goldmark. Headings become chapters nested by
// level and every block ends with a break token.
func (f *MarkdownFormat) Import(filename string) (*Book, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseMarkdown(src), nil
}

func parseMarkdown(src []byte) *Book {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		tokens []string
		o      outline
		title  string
		inline strings.Builder
	)

	flush := func() {
		tokens = append(tokens, strings.Fields(inline.String())...)
		inline.Reset()
	}
	endBlock := func() {
		flush()
		if len(tokens) > 0 && !token.IsBreak(tokens[len(tokens)-1]) {
			tokens = append(tokens, token.Break)
		}
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Document:
			return ast.WalkContinue, nil

		case *ast.Heading:
			if entering {
				flush()
				h := strings.Join(strings.Fields(string(node.Text(src))), " ")
				if h != "" {
					o.add(node.Level, h, len(tokens))
					if title == "" && node.Level == 1 {
						title = h
					}
				}
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				flush()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					tokens = append(tokens, strings.Fields(string(seg.Value(src)))...)
					tokens = append(tokens, token.Break)
				}
				endBlock()
			}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				inline.Write(node.Segment.Value(src))
				switch {
				case node.HardLineBreak():
					flush()
					tokens = append(tokens, token.Break)
				case node.SoftLineBreak():
					inline.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil

		case *ast.String:
			if entering {
				inline.Write(node.Value)
			}
			return ast.WalkContinue, nil

		case *ast.AutoLink:
			if entering {
				inline.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		}

		if n.Type() == ast.TypeBlock && !entering {
			endBlock()
		}
		return ast.WalkContinue, nil
	})
	flush()

	return &Book{
		Title:    title,
		Tokens:   tokens,
		Chapters: o.chapters(),
	}
}
