package state

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/reader"
	"github.com/metcalfc/lector/internal/settings"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(title string, tokens ...string) Document {
	return NewDocument(&reader.Book{Title: title, Tokens: tokens}, title+".txt", "")
}

func TestComputeHash(t *testing.T) {
	// Create temp file with known content
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "test1.txt")
	file2 := filepath.Join(tmpDir, "test2.txt")
	file3 := filepath.Join(tmpDir, "test1_copy.txt")

	os.WriteFile(file1, []byte("Hello, World!"), 0644)
	os.WriteFile(file2, []byte("Different content"), 0644)
	os.WriteFile(file3, []byte("Hello, World!"), 0644) // Same as file1

	hash1, err := ComputeHash(file1)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	hash2, err := ComputeHash(file2)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	hash3, err := ComputeHash(file3)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	if hash1 != hash3 {
		t.Errorf("Same content should produce same hash: %s != %s", hash1, hash3)
	}
	if hash1 == hash2 {
		t.Errorf("Different content should produce different hash")
	}
	if len(hash1) != 32 {
		t.Errorf("Hash should be 32 chars, got %d", len(hash1))
	}
}

func TestDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)
	if got, want := Dir(), filepath.Join(tmpDir, "lector"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("Moby", "Call", "me", "Ishmael.", "\n", "Some", "years", "ago.")
	doc.Chapters = []reader.Chapter{{Title: "Loomings", Position: 0}}
	doc.Hash = "abc"
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Title != "Moby" || got.TokenCount != 7 || len(got.Chapters) != 1 {
		t.Errorf("GetDocument = %+v", got)
	}
	if tokens := got.Tokens(); len(tokens) != 7 || tokens[3] != "\n" {
		t.Errorf("Tokens() = %q", tokens)
	}

	byHash, err := s.FindByHash(ctx, "abc")
	if err != nil || byHash.ID != doc.ID {
		t.Errorf("FindByHash = %v, %v", byHash.ID, err)
	}

	if _, err := s.GetDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSetPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("short", "one", "two", "three")
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pos, want int
	}{
		{1, 1},
		{50, 2},
		{-3, 0},
	}
	for _, tt := range tests {
		if err := s.SetPosition(ctx, doc.ID, tt.pos); err != nil {
			t.Fatalf("SetPosition(%d) failed: %v", tt.pos, err)
		}
		got, _ := s.GetDocument(ctx, doc.ID)
		if got.Position != tt.want {
			t.Errorf("SetPosition(%d): Position = %d, want %d", tt.pos, got.Position, tt.want)
		}
		if got.LastReadAt.IsZero() {
			t.Error("LastReadAt not set")
		}
	}

	if err := s.SetPosition(ctx, "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPosition(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListDocumentsRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testDocument("a", "x")
	b := testDocument("b", "y")
	b.CreatedAt = a.CreatedAt.Add(-time.Hour)
	s.PutDocument(ctx, a)
	s.PutDocument(ctx, b)

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != a.ID {
		t.Fatalf("ListDocuments order wrong: %v", titles(docs))
	}

	// Reading b moves it to the front.
	if err := s.SetPosition(ctx, b.ID, 0); err != nil {
		t.Fatal(err)
	}
	docs, _ = s.ListDocuments(ctx)
	if docs[0].ID != b.ID {
		t.Errorf("after reading b: %v", titles(docs))
	}
}

func titles(docs []Document) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d.Title)
	}
	return out
}

// tree builds root/{a/{b}}, c and one document in b.
func tree(t *testing.T, s *Store) (a, b, c Folder, doc Document) {
	t.Helper()
	ctx := context.Background()
	a = NewFolder("a", "")
	b = NewFolder("b", a.ID)
	c = NewFolder("c", "")
	for _, f := range []Folder{a, b, c} {
		if err := s.PutFolder(ctx, f); err != nil {
			t.Fatal(err)
		}
	}
	doc = testDocument("inside", "word")
	doc.FolderID = b.ID
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	return a, b, c, doc
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("into sibling", func(t *testing.T) {
		s := newTestStore(t)
		a, _, c, doc := tree(t, s)
		if err := s.Move(ctx, []string{doc.ID}, []string{a.ID}, c.ID); err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		gotA, _ := s.GetFolder(ctx, a.ID)
		gotDoc, _ := s.GetDocument(ctx, doc.ID)
		if gotA.ParentID != c.ID || gotDoc.FolderID != c.ID {
			t.Errorf("parent = %q, doc folder = %q, want %q", gotA.ParentID, gotDoc.FolderID, c.ID)
		}
	})

	t.Run("onto itself is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		a, _, _, _ := tree(t, s)
		if err := s.Move(ctx, nil, []string{a.ID}, a.ID); err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		got, _ := s.GetFolder(ctx, a.ID)
		if got.ParentID != "" {
			t.Errorf("ParentID = %q, want root", got.ParentID)
		}
	})

	t.Run("into descendant is rejected", func(t *testing.T) {
		s := newTestStore(t)
		a, b, _, doc := tree(t, s)
		err := s.Move(ctx, []string{doc.ID}, []string{a.ID}, b.ID)
		if !errors.Is(err, ErrCycle) {
			t.Fatalf("Move error = %v, want ErrCycle", err)
		}
		gotA, _ := s.GetFolder(ctx, a.ID)
		gotDoc, _ := s.GetDocument(ctx, doc.ID)
		if gotA.ParentID != "" || gotDoc.FolderID != b.ID {
			t.Error("rejected move wrote changes")
		}
	})

	t.Run("rejected folder rolls back earlier folders", func(t *testing.T) {
		s := newTestStore(t)
		a, b, c, _ := tree(t, s)
		err := s.Move(ctx, nil, []string{c.ID, a.ID}, b.ID)
		if !errors.Is(err, ErrCycle) {
			t.Fatalf("Move error = %v, want ErrCycle", err)
		}
		gotC, _ := s.GetFolder(ctx, c.ID)
		if gotC.ParentID != "" {
			t.Errorf("c.ParentID = %q, want root after rollback", gotC.ParentID)
		}
	})

	t.Run("to root", func(t *testing.T) {
		s := newTestStore(t)
		_, b, _, _ := tree(t, s)
		if err := s.Move(ctx, nil, []string{b.ID}, ""); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetFolder(ctx, b.ID)
		if got.ParentID != "" {
			t.Errorf("ParentID = %q, want root", got.ParentID)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		s := newTestStore(t)
		tree(t, s)
		if err := s.Move(ctx, nil, nil, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Move error = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteFolderSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c, doc := tree(t, s)
	outside := testDocument("outside", "word")
	s.PutDocument(ctx, outside)

	if err := s.Delete(ctx, nil, []string{a.ID}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, err := s.GetFolder(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("folder %s still present", id)
		}
	}
	if _, err := s.GetDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Error("document inside deleted subtree still present")
	}
	if _, err := s.GetFolder(ctx, c.ID); err != nil {
		t.Errorf("unrelated folder deleted: %v", err)
	}
	if _, err := s.GetDocument(ctx, outside.ID); err != nil {
		t.Errorf("unrelated document deleted: %v", err)
	}
}

func TestListDocumentsIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, b, _, doc := tree(t, s)
	root := testDocument("root", "word")
	s.PutDocument(ctx, root)

	in, err := s.ListDocumentsIn(ctx, b.ID)
	if err != nil || len(in) != 1 || in[0].ID != doc.ID {
		t.Errorf("ListDocumentsIn(b) = %v, %v", titles(in), err)
	}
	top, err := s.ListDocumentsIn(ctx, "")
	if err != nil || len(top) != 1 || top[0].ID != root.ID {
		t.Errorf("ListDocumentsIn(root) = %v, %v", titles(top), err)
	}
}

func TestGlossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutGlossary(ctx, glossary.Entry{Word: "Ephemeral,", Definition: "short-lived"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutGlossary(ctx, glossary.Entry{Word: "ephemeral", Definition: "fleeting"}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.ListGlossary(ctx)
	if err != nil || len(entries) != 1 || entries[0].Definition != "fleeting" {
		t.Fatalf("ListGlossary = %+v, %v", entries, err)
	}
	if err := s.DeleteGlossary(ctx, "EPHEMERAL"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGlossary(ctx, "ephemeral"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGlossary after delete: %v", err)
	}
	if err := s.PutGlossary(ctx, glossary.Entry{Word: "!!"}); err == nil {
		t.Error("PutGlossary with empty key should fail")
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app, voice, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if app.Mode != settings.DefaultApp().Mode || voice.Rate != 1 {
		t.Errorf("LoadSettings defaults = %+v, %+v", app.Mode, voice.Rate)
	}

	app = app.WithMode(settings.ModeWheel)
	voice = voice.WithEnabled(settings.ModeWheel, true)
	if err := s.SaveSettings(ctx, app, voice); err != nil {
		t.Fatal(err)
	}
	app, voice, _ = s.LoadSettings(ctx)
	if app.Mode != settings.ModeWheel || !voice.EnabledFor(settings.ModeWheel) {
		t.Errorf("saved settings not loaded: %v %v", app.Mode, voice.Enabled)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	_, b, _, doc := tree(t, src)
	src.PutGlossary(ctx, glossary.Entry{Word: "word", Definition: "a unit"})
	src.SaveSettings(ctx, settings.DefaultApp().WithMode(settings.ModeViral), settings.DefaultVoice())

	var buf bytes.Buffer
	if err := src.WriteBackup(ctx, &buf); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}

	dst := newTestStore(t)
	backup, err := dst.ReadBackup(ctx, &buf)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if backup.Version != BackupVersion {
		t.Errorf("Version = %d", backup.Version)
	}

	got, err := dst.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != doc.Title || got.FolderID != b.ID || got.Content != doc.Content {
		t.Errorf("restored document = %+v", got)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, doc.CreatedAt)
	}
	folders, _ := dst.ListFolders(ctx)
	if len(folders) != 3 {
		t.Errorf("restored %d folders, want 3", len(folders))
	}
	if e, err := dst.GetGlossary(ctx, "word"); err != nil || e.Definition != "a unit" {
		t.Errorf("restored glossary = %+v, %v", e, err)
	}
	app, _, _ := dst.LoadSettings(ctx)
	if app.Mode != settings.ModeViral {
		t.Errorf("restored mode = %q", app.Mode)
	}
}

func TestImportKeepsAbsentRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	keep := testDocument("keep", "word")
	s.PutDocument(ctx, keep)

	replaced := testDocument("old", "word")
	s.PutDocument(ctx, replaced)
	replaced.Title = "new"

	if err := s.Import(ctx, &Backup{Version: 1, Books: []Document{replaced}}); err != nil {
		t.Fatal(err)
	}
	docs, _ := s.ListDocuments(ctx)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	got, _ := s.GetDocument(ctx, replaced.ID)
	if got.Title != "new" {
		t.Errorf("Title = %q, want new", got.Title)
	}
}

func TestImportRejectsFolderCycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	keep := NewFolder("keep", "")
	s.PutFolder(ctx, keep)

	a := Folder{ID: "a", Name: "a", ParentID: "b"}
	b := Folder{ID: "b", Name: "b", ParentID: "a"}
	doc := testDocument("inside", "word")
	err := s.Import(ctx, &Backup{Version: 1, Folders: []Folder{a, b}, Books: []Document{doc}})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Import error = %v, want ErrCycle", err)
	}
	folders, _ := s.ListFolders(ctx)
	if len(folders) != 1 || folders[0].ID != keep.ID {
		t.Errorf("folders after rejected import = %d, want only the existing one", len(folders))
	}
	if _, err := s.GetDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Error("rejected import wrote documents")
	}
}

func TestSubtreeStopsOnCycle(t *testing.T) {
	got := subtree(map[string]string{"a": "b", "b": "a", "c": ""}, "a")
	if len(got) != 2 {
		t.Errorf("subtree = %v, want [a b]", got)
	}
	if findCycle(map[string]string{"a": "", "b": "a"}) != "" {
		t.Error("acyclic tree reported a cycle")
	}
}

func TestImportRejectsVersion(t *testing.T) {
	s := newTestStore(t)
	err := s.Import(context.Background(), &Backup{Version: 2})
	if !errors.Is(err, ErrBackupVersion) {
		t.Errorf("Import error = %v, want ErrBackupVersion", err)
	}
}

func TestImportFileDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("First line.\nSecond line."), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := s.ImportFile(ctx, path, "notes.txt", "")
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if first.Existing {
		t.Error("first import reported an existing document")
	}
	if first.Document.Title != "notes" || first.Document.Source != "notes.txt" {
		t.Errorf("document = %q from %q", first.Document.Title, first.Document.Source)
	}

	second, err := s.ImportFile(ctx, path, "notes.txt", "")
	if err != nil {
		t.Fatalf("second ImportFile failed: %v", err)
	}
	if !second.Existing || second.Document.ID != first.Document.ID {
		t.Errorf("second import = %+v, want existing %s", second, first.Document.ID)
	}

	docs, _ := s.ListDocuments(ctx)
	if len(docs) != 1 {
		t.Errorf("library has %d documents, want 1", len(docs))
	}
}

func TestImportFileEmpty(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "blank.txt")
	os.WriteFile(path, []byte("  \n\n "), 0644)

	if _, err := s.ImportFile(context.Background(), path, "blank.txt", ""); !errors.Is(err, reader.ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}
