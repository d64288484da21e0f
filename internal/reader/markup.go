package reader

import (
	"bytes"
	"strings"

	"github.com/metcalfc/lector/internal/token"
	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
}

// section is the token stream of one markup document with the positions of
// its id'd elements.
type section struct {
	tokens   []string
	anchors  map[string]int
	headings []heading
	title    string
}

type heading struct {
	level int
	text  string
	pos   int
}

// parseMarkup walks an (X)HTML document depth-first into tokens.
func parseMarkup(data []byte) (*section, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s := &section{anchors: make(map[string]int)}
	if t := findElement(doc, "title"); t != nil {
		s.title = strings.Join(strings.Fields(textContent(t)), " ")
	}

	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	s.walk(root)
	return s, nil
}

func (s *section) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if skippedElements[n.Data] {
			return
		}
		if id := attr(n, "id"); id != "" {
			if _, seen := s.anchors[id]; !seen {
				s.anchors[id] = len(s.tokens)
			}
		}
		if n.Data == "br" {
			s.tokens = append(s.tokens, token.Break)
			return
		}
		if level := headingLevel(n.Data); level > 0 {
			if title := strings.Join(strings.Fields(textContent(n)), " "); title != "" {
				s.headings = append(s.headings, heading{level: level, text: title, pos: len(s.tokens)})
			}
		}
	}

	if n.Type == html.TextNode {
		s.tokens = append(s.tokens, strings.Fields(n.Data)...)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		if len(s.tokens) > 0 && !token.IsBreak(s.tokens[len(s.tokens)-1]) {
			s.tokens = append(s.tokens, token.Break)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
