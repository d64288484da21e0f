package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metcalfc/lector/internal/reader"
)

// PutDocument inserts or replaces a document.
func (s *Store) PutDocument(ctx context.Context, d Document) error {
	return putDocument(ctx, s.db, d)
}

func putDocument(ctx context.Context, q execer, d Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = q.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (id, folder_id, hash, recent, data) VALUES (?, ?, ?, ?, ?)",
		d.ID, nullable(d.FolderID), nullable(d.Hash), d.recent(), string(data),
	)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	d, err := getOne[Document](ctx, s.db, "SELECT data FROM documents WHERE id = ?", id)
	if err != nil {
		return d, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

// ListDocuments returns all documents, most recently read first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM documents ORDER BY recent DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return scanAll[Document](rows)
}

// ListDocumentsIn returns the documents directly inside a folder; an empty
// folderID lists the root.
func (s *Store) ListDocumentsIn(ctx context.Context, folderID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM documents WHERE folder_id IS ? ORDER BY recent DESC, id",
		nullable(folderID),
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return scanAll[Document](rows)
}

// FindByHash returns the document imported from a file with the given
// content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (Document, error) {
	d, err := getOne[Document](ctx, s.db, "SELECT data FROM documents WHERE hash = ? LIMIT 1", hash)
	if err != nil {
		return d, fmt.Errorf("find document by hash: %w", err)
	}
	return d, nil
}

// SetPosition records reading progress.
func (s *Store) SetPosition(ctx context.Context, id string, pos int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		d, err := getOne[Document](ctx, tx, "SELECT data FROM documents WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("set position %s: %w", id, err)
		}
		d.Position = max(0, min(pos, d.TokenCount-1))
		d.LastReadAt = time.Now().UTC()
		return putDocument(ctx, tx, d)
	})
}

// Imported is the outcome of ImportFile.
type Imported struct {
	Document Document
	// Existing is set when a document with the same content hash was
	// already in the library; nothing was written.
	Existing bool
	Warnings []string
}

// ImportFile imports filename into folderID. source is the name recorded on
// the document, usually the file's base name.
func (s *Store) ImportFile(ctx context.Context, filename, source, folderID string) (Imported, error) {
	hash, err := ComputeHash(filename)
	if err != nil {
		return Imported{}, fmt.Errorf("hash %s: %w", source, err)
	}
	if d, err := s.FindByHash(ctx, hash); err == nil {
		return Imported{Document: d, Existing: true}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Imported{}, err
	}

	book, err := reader.Import(filename)
	if err != nil {
		return Imported{}, err
	}
	d := NewDocument(book, source, hash)
	d.FolderID = folderID
	if err := s.PutDocument(ctx, d); err != nil {
		return Imported{}, err
	}
	return Imported{Document: d, Warnings: book.Warnings}, nil
}

// DeleteDocument removes one document.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.Delete(ctx, []string{id}, nil)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
