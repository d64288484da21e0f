package reader

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// tocPoint is one table of contents target before anchor resolution.
type tocPoint struct {
	title    string
	href     string
	children []tocPoint
}

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// tableOfContents reads the EPUB 3 nav document when the package has one,
// otherwise the NCX. Hrefs are returned relative to the package directory.
func (a *archive) tableOfContents() []tocPoint {
	if it, ok := a.opf.item(func(it opfItem) bool { return hasProperty(it, "nav") }); ok {
		if data, err := a.read(a.resolve(it.Href)); err == nil {
			if points := parseNavDocument(data, path.Dir(it.Href)); len(points) > 0 {
				return points
			}
		}
	}

	it, ok := a.opf.item(func(it opfItem) bool {
		return it.MediaType == "application/x-dtbncx+xml" || (a.opf.Spine.TOC != "" && it.ID == a.opf.Spine.TOC)
	})
	if !ok {
		return nil
	}
	data, err := a.read(a.resolve(it.Href))
	if err != nil {
		return nil
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil
	}
	return convertNavPoints(toc.NavMap.NavPoints, path.Dir(it.Href))
}

func convertNavPoints(points []navPoint, dir string) []tocPoint {
	var out []tocPoint
	for _, np := range points {
		out = append(out, tocPoint{
			title:    strings.TrimSpace(np.Label.Text),
			href:     joinHref(dir, np.Content.Src),
			children: convertNavPoints(np.Children, dir),
		})
	}
	return out
}

// parseNavDocument extracts the nested list of the toc nav element.
func parseNavDocument(data []byte, dir string) []tocPoint {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	nav := findTOCNav(doc)
	if nav == nil {
		return nil
	}
	if ol := firstChildElement(nav, "ol"); ol != nil {
		return navList(ol, dir)
	}
	return nil
}

func findTOCNav(n *html.Node) *html.Node {
	var fallback *html.Node
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "nav" {
			for _, a := range n.Attr {
				if (a.Key == "epub:type" || (a.Namespace == "epub" && a.Key == "type")) && a.Val == "toc" {
					return n
				}
			}
			if fallback == nil {
				fallback = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	if found := find(n); found != nil {
		return found
	}
	return fallback
}

func navList(ol *html.Node, dir string) []tocPoint {
	var out []tocPoint
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var p tocPoint
		if a := firstChildElement(li, "a"); a != nil {
			p.title = strings.Join(strings.Fields(textContent(a)), " ")
			p.href = joinHref(dir, attr(a, "href"))
		} else if span := firstChildElement(li, "span"); span != nil {
			p.title = strings.Join(strings.Fields(textContent(span)), " ")
		}
		if sub := firstChildElement(li, "ol"); sub != nil {
			p.children = navList(sub, dir)
		}
		if p.href == "" && len(p.children) > 0 {
			p.href = p.children[0].href
		}
		out = append(out, p)
	}
	return out
}

func firstChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// joinHref resolves a TOC href relative to the document that contains it,
// keeping any fragment.
func joinHref(dir, href string) string {
	if href == "" {
		return ""
	}
	frag := ""
	if i := strings.Index(href, "#"); i != -1 {
		href, frag = href[:i], href[i:]
	}
	if href == "" {
		return frag
	}
	return path.Join(dir, href) + frag
}
