package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PutFolder inserts or replaces a folder.
func (s *Store) PutFolder(ctx context.Context, f Folder) error {
	return putFolder(ctx, s.db, f)
}

func putFolder(ctx context.Context, q execer, f Folder) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode folder: %w", err)
	}
	_, err = q.ExecContext(ctx,
		"INSERT OR REPLACE INTO folders (id, parent_id, name, data) VALUES (?, ?, ?, ?)",
		f.ID, nullable(f.ParentID), f.Name, string(data),
	)
	if err != nil {
		return fmt.Errorf("put folder: %w", err)
	}
	return nil
}

// GetFolder retrieves a folder by ID.
func (s *Store) GetFolder(ctx context.Context, id string) (Folder, error) {
	f, err := getOne[Folder](ctx, s.db, "SELECT data FROM folders WHERE id = ?", id)
	if err != nil {
		return f, fmt.Errorf("get folder %s: %w", id, err)
	}
	return f, nil
}

// ListFolders returns all folders sorted by name.
func (s *Store) ListFolders(ctx context.Context) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM folders ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return scanAll[Folder](rows)
}

// parents maps every folder ID to its parent ID.
func parents(ctx context.Context, q execer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, COALESCE(parent_id, '') FROM folders")
	if err != nil {
		return nil, fmt.Errorf("load folder tree: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, parent string
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out[id] = parent
	}
	return out, rows.Err()
}

// isAncestor reports whether folder a is target or one of its ancestors.
func isAncestor(tree map[string]string, a, target string) bool {
	seen := make(map[string]bool)
	for id := target; id != "" && !seen[id]; id = tree[id] {
		if id == a {
			return true
		}
		seen[id] = true
	}
	return false
}

// subtree returns root and all folders below it.
func subtree(tree map[string]string, root string) []string {
	children := make(map[string][]string)
	for id, parent := range tree {
		children[parent] = append(children[parent], id)
	}
	out := []string{root}
	seen := map[string]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, id := range children[out[i]] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// findCycle returns a folder whose parent chain leads back to itself, or ""
// when the tree is acyclic.
func findCycle(tree map[string]string) string {
	for start := range tree {
		seen := make(map[string]bool)
		for id := start; id != ""; id = tree[id] {
			if seen[id] {
				return id
			}
			seen[id] = true
		}
	}
	return ""
}

// Move reparents documents and folders under target (empty for the root)
// in one transaction. Moving a folder onto itself is a no-op; moving it
// into one of its descendants fails with ErrCycle and writes nothing.
func (s *Store) Move(ctx context.Context, docIDs, folderIDs []string, target string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		tree, err := parents(ctx, tx)
		if err != nil {
			return err
		}
		if _, ok := tree[target]; target != "" && !ok {
			return fmt.Errorf("move: folder %s: %w", target, ErrNotFound)
		}

		for _, id := range folderIDs {
			if id == target {
				continue
			}
			if isAncestor(tree, id, target) {
				return fmt.Errorf("move folder %s: %w", id, ErrCycle)
			}
			f, err := getOne[Folder](ctx, tx, "SELECT data FROM folders WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("move folder %s: %w", id, err)
			}
			f.ParentID = target
			if err := putFolder(ctx, tx, f); err != nil {
				return err
			}
			tree[id] = target
		}

		for _, id := range docIDs {
			d, err := getOne[Document](ctx, tx, "SELECT data FROM documents WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("move document %s: %w", id, err)
			}
			d.FolderID = target
			if err := putDocument(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes documents and folders in one transaction. A deleted
// folder takes its whole subtree with it: descendant folders and every
// document inside them. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, docIDs, folderIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		tree, err := parents(ctx, tx)
		if err != nil {
			return err
		}
		var folders []string
		for _, id := range folderIDs {
			if _, ok := tree[id]; ok {
				folders = append(folders, subtree(tree, id)...)
			}
		}

		if len(folders) > 0 {
			in, args := placeholders(folders)
			if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE folder_id IN ("+in+")", args...); err != nil {
				return fmt.Errorf("delete folder contents: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id IN ("+in+")", args...); err != nil {
				return fmt.Errorf("delete folders: %w", err)
			}
		}
		if len(docIDs) > 0 {
			in, args := placeholders(docIDs)
			if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id IN ("+in+")", args...); err != nil {
				return fmt.Errorf("delete documents: %w", err)
			}
		}
		return nil
	})
}

// DeleteFolder removes a folder and its subtree.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	return s.Delete(ctx, nil, []string{id})
}

func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
