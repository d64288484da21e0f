package reader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/metcalfc/lector/internal/token"
)

func TestImport(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte("Hello world this is a test."), 0644)

		book, err := Import(path)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		want := []string{"Hello", "world", "this", "is", "a", "test."}
		if !reflect.DeepEqual(book.Tokens, want) {
			t.Errorf("got %q, want %q", book.Tokens, want)
		}
		if book.Title != "test" {
			t.Errorf("Title = %q, want test", book.Title)
		}
	})

	t.Run("unknown extension falls back to text", func(t *testing.T) {
		path := filepath.Join(tmpDir, "notes.log")
		os.WriteFile(path, []byte("Some log content"), 0644)

		book, err := Import(path)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(book.Tokens) != 3 {
			t.Errorf("got %d tokens, want 3", len(book.Tokens))
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "empty.txt")
		os.WriteFile(path, []byte("  \n\n "), 0644)

		book, err := Import(path)
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("err = %v, want ErrEmpty", err)
		}
		if book != nil {
			t.Error("expected no book on failure")
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := Import(filepath.Join(tmpDir, "nonexistent.txt"))
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Error("no formats registered")
	}
	for _, f := range formats {
		if f == "EPUB (.epub)" {
			return
		}
	}
	t.Errorf("EPUB not registered: %v", formats)
}

func TestForFile(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"book.EPUB", "EPUB"},
		{"notes.md", "Markdown"},
		{"page.htm", "HTML"},
		{"paper.pdf", "PDF"},
		{"letter.docx", "DOCX"},
		{"README", "Text"},
	}
	for _, tt := range tests {
		if got := ForFile(tt.file).Name(); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.file, got, tt.want)
		}
	}
}

func TestAppendSection(t *testing.T) {
	var all []string
	if off := appendSection(&all, []string{"a", "b"}); off != 0 {
		t.Errorf("first offset = %d, want 0", off)
	}
	if off := appendSection(&all, []string{"c"}); off != 3 {
		t.Errorf("second offset = %d, want 3", off)
	}
	if off := appendSection(&all, []string{token.Break, "d"}); off != 4 {
		t.Errorf("third offset = %d, want 4", off)
	}
	want := []string{"a", "b", token.Break, "c", token.Break, "d"}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("tokens = %q, want %q", all, want)
	}
}
