package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/metcalfc/lector/internal/reader"
	"github.com/metcalfc/lector/internal/token"
)

// Document is one imported book. Content holds the token stream rendered
// with token.Join; Tokens reproduces it.
type Document struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Author     string           `json:"author,omitempty"`
	Content    string           `json:"content"`
	TokenCount int              `json:"tokenCount"`
	Position   int              `json:"position"`
	CreatedAt  time.Time        `json:"createdAt"`
	LastReadAt time.Time        `json:"lastReadAt,omitzero"`
	Cover      []byte           `json:"cover,omitempty"`
	CoverType  string           `json:"coverType,omitempty"`
	Chapters   []reader.Chapter `json:"chapters,omitempty"`
	FolderID   string           `json:"folderId,omitempty"`
	Hash       string           `json:"hash,omitempty"`
	Source     string           `json:"source,omitempty"`
}

// NewDocument builds a Document from an imported book.
func NewDocument(book *reader.Book, source, hash string) Document {
	return Document{
		ID:         uuid.New().String(),
		Title:      book.Title,
		Author:     book.Author,
		Content:    token.Join(book.Tokens),
		TokenCount: len(book.Tokens),
		CreatedAt:  time.Now().UTC(),
		Cover:      book.Cover,
		CoverType:  book.CoverType,
		Chapters:   book.Chapters,
		Hash:       hash,
		Source:     source,
	}
}

// Tokens returns the document's token stream.
func (d Document) Tokens() []string {
	return token.Tokenize(d.Content)
}

// Progress is the read fraction in [0, 1].
func (d Document) Progress() float64 {
	if d.TokenCount <= 1 {
		return 0
	}
	return float64(d.Position) / float64(d.TokenCount-1)
}

func (d Document) recent() int64 {
	if d.LastReadAt.After(d.CreatedAt) {
		return d.LastReadAt.UnixNano()
	}
	return d.CreatedAt.UnixNano()
}

// Folder groups documents. ParentID is empty for root folders.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFolder returns a folder with a fresh identifier.
func NewFolder(name, parentID string) Folder {
	return Folder{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}
