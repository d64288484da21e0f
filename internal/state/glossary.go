package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metcalfc/lector/internal/glossary"
)

// PutGlossary inserts or replaces the entry for its normalized word.
func (s *Store) PutGlossary(ctx context.Context, e glossary.Entry) error {
	return putGlossary(ctx, s.db, e)
}

func putGlossary(ctx context.Context, q execer, e glossary.Entry) error {
	key := e.Key()
	if key == "" {
		return fmt.Errorf("put glossary %q: empty word", e.Word)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode glossary entry: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO glossary (key, data) VALUES (?, ?)", key, string(data),
	); err != nil {
		return fmt.Errorf("put glossary: %w", err)
	}
	return nil
}

// GetGlossary returns the entry for word.
func (s *Store) GetGlossary(ctx context.Context, word string) (glossary.Entry, error) {
	e, err := getOne[glossary.Entry](ctx, s.db, "SELECT data FROM glossary WHERE key = ?", glossary.NormalizeKey(word))
	if err != nil {
		return e, fmt.Errorf("get glossary %q: %w", word, err)
	}
	return e, nil
}

// ListGlossary returns every entry sorted by key.
func (s *Store) ListGlossary(ctx context.Context) ([]glossary.Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM glossary ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list glossary: %w", err)
	}
	return scanAll[glossary.Entry](rows)
}

// DeleteGlossary removes the entry for word.
func (s *Store) DeleteGlossary(ctx context.Context, word string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM glossary WHERE key = ?", glossary.NormalizeKey(word)); err != nil {
		return fmt.Errorf("delete glossary: %w", err)
	}
	return nil
}
