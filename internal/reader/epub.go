package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Import concatenates every spine section into one token stream, merges
// section anchors into a global map and resolves the table of contents
// against it.
func (f *EPUBFormat) Import(filename string) (*Book, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	spine := rc.Rootfiles[0].Spine

	ar, err := openArchive(filename)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	book := &Book{
		Title:   ar.opf.title(),
		Author:  ar.opf.author(),
		Anchors: make(map[string]int),
	}

	var sections []string
	for i, ref := range spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		key := sectionKey(ref.Item.HREF)

		data, err := readItem(ref.Item)
		if err != nil {
			book.Warnings = append(book.Warnings, fmt.Sprintf("section %d (%s): %v", i+1, key, err))
			continue
		}
		sec, err := parseMarkup(data)
		if err != nil {
			book.Warnings = append(book.Warnings, fmt.Sprintf("section %d (%s): %v", i+1, key, err))
			continue
		}

		offset := appendSection(&book.Tokens, sec.tokens)
		book.Anchors[key] = offset
		for id, pos := range sec.anchors {
			book.Anchors[key+"#"+id] = offset + pos
		}
		if len(sec.tokens) > 0 {
			sections = append(sections, key)
		}
	}

	if points := ar.tableOfContents(); len(points) > 0 {
		book.Chapters = resolveChapters(points, book.Anchors)
	} else {
		for i, key := range sections {
			book.Chapters = append(book.Chapters, Chapter{
				Title:    fmt.Sprintf("Section %d", i+1),
				Position: book.Anchors[key],
			})
		}
	}

	book.Cover, book.CoverType = ar.cover()
	return book, nil
}

func readItem(item *epub.Item) ([]byte, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// sectionKey is the anchor key of a spine document: its path relative to
// the package document, without any fragment.
func sectionKey(href string) string {
	if i := strings.Index(href, "#"); i != -1 {
		href = href[:i]
	}
	if href == "" {
		return ""
	}
	return path.Clean(href)
}

// resolveChapters turns TOC points into chapters, looking each target up as
// section#fragment, then section, then falling back to 0.
func resolveChapters(points []tocPoint, anchors map[string]int) []Chapter {
	if len(points) == 0 {
		return nil
	}
	out := make([]Chapter, 0, len(points))
	for _, p := range points {
		key := sectionKey(p.href)
		pos, ok := 0, false
		if i := strings.Index(p.href, "#"); i != -1 {
			pos, ok = anchors[key+"#"+p.href[i+1:]]
		}
		if !ok {
			pos = anchors[key]
		}
		out = append(out, Chapter{
			Title:    p.title,
			Position: pos,
			Children: resolveChapters(p.children, anchors),
		})
	}
	return out
}

// archive gives direct access to the EPUB zip and its package document for
// the parts goreader does not expose: the nav document, properties and the
// cover image.
type archive struct {
	zr      *zip.ReadCloser
	opfPath string
	opf     opfPackage
}

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Titles   []string  `xml:"metadata>title"`
	Creators []string  `xml:"metadata>creator"`
	Metas    []opfMeta `xml:"metadata>meta"`
	Items    []opfItem `xml:"manifest>item"`
	Spine    struct {
		TOC string `xml:"toc,attr"`
	} `xml:"spine"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

func (p opfPackage) title() string {
	if len(p.Titles) > 0 {
		return strings.TrimSpace(p.Titles[0])
	}
	return ""
}

func (p opfPackage) author() string {
	if len(p.Creators) > 0 {
		return strings.TrimSpace(p.Creators[0])
	}
	return ""
}

func (p opfPackage) item(match func(opfItem) bool) (opfItem, bool) {
	for _, it := range p.Items {
		if match(it) {
			return it, true
		}
	}
	return opfItem{}, false
}

func hasProperty(it opfItem, prop string) bool {
	for _, p := range strings.Fields(it.Properties) {
		if p == prop {
			return true
		}
	}
	return false
}

func openArchive(filename string) (*archive, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	a := &archive{zr: zr}

	data, err := a.read("META-INF/container.xml")
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("read container: %w", err)
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil || len(c.Rootfiles) == 0 {
		zr.Close()
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	a.opfPath = c.Rootfiles[0].FullPath

	data, err = a.read(a.opfPath)
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("read package document: %w", err)
	}
	if err := xml.Unmarshal(data, &a.opf); err != nil {
		zr.Close()
		return nil, fmt.Errorf("parse package document: %w", err)
	}
	return a, nil
}

func (a *archive) Close() error {
	return a.zr.Close()
}

// resolve turns a manifest href into an archive path.
func (a *archive) resolve(href string) string {
	return path.Join(path.Dir(a.opfPath), href)
}

// read returns the named archive member, tolerating the path variations
// found in the wild.
func (a *archive) read(name string) ([]byte, error) {
	var match *zip.File
	for _, f := range a.zr.File {
		if f.Name == name {
			match = f
			break
		}
		if match == nil && (strings.HasSuffix(f.Name, "/"+name) || strings.HasSuffix(name, "/"+f.Name)) {
			match = f
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s not found in archive", name)
	}
	rc, err := match.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// cover returns the cover image bytes and media type, if the package names one.
func (a *archive) cover() ([]byte, string) {
	it, ok := a.opf.item(func(it opfItem) bool { return hasProperty(it, "cover-image") })
	if !ok {
		var id string
		for _, m := range a.opf.Metas {
			if m.Name == "cover" {
				id = m.Content
			}
		}
		it, ok = a.opf.item(func(it opfItem) bool {
			return id != "" && it.ID == id && strings.HasPrefix(it.MediaType, "image/")
		})
	}
	if !ok {
		return nil, ""
	}
	data, err := a.read(a.resolve(it.Href))
	if err != nil {
		return nil, ""
	}
	return data, it.MediaType
}
