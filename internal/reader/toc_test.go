package reader

import (
	"testing"
)

func titles(chain []Chapter) []string {
	var out []string
	for _, ch := range chain {
		out = append(out, ch.Title)
	}
	return out
}

func TestActiveChapterFlat(t *testing.T) {
	chapters := []Chapter{
		{Title: "one", Position: 0},
		{Title: "two", Position: 100},
		{Title: "three", Position: 250},
	}
	tests := []struct {
		pos  int
		want string
	}{
		{0, "one"},
		{99, "one"},
		{100, "two"},
		{150, "two"},
		{250, "three"},
		{10000, "three"},
	}
	for _, tt := range tests {
		chain := ActiveChapter(chapters, tt.pos)
		if len(chain) != 1 || chain[0].Title != tt.want {
			t.Errorf("ActiveChapter(%d) = %v, want [%s]", tt.pos, titles(chain), tt.want)
		}
	}
}

func TestActiveChapterNested(t *testing.T) {
	chapters := []Chapter{
		{Title: "Part I", Position: 10, Children: []Chapter{
			{Title: "1", Position: 20},
			{Title: "2", Position: 60, Children: []Chapter{
				{Title: "2.1", Position: 70},
			}},
		}},
		{Title: "Part II", Position: 100},
	}
	tests := []struct {
		pos  int
		want []string
	}{
		{5, nil},
		{10, []string{"Part I"}},
		{25, []string{"Part I", "1"}},
		{65, []string{"Part I", "2"}},
		{99, []string{"Part I", "2", "2.1"}},
		{100, []string{"Part II"}},
	}
	for _, tt := range tests {
		got := titles(ActiveChapter(chapters, tt.pos))
		if len(got) != len(tt.want) {
			t.Errorf("ActiveChapter(%d) = %v, want %v", tt.pos, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ActiveChapter(%d) = %v, want %v", tt.pos, got, tt.want)
				break
			}
		}
	}
}

func TestFlattenPreview(t *testing.T) {
	tokens := []string{"Alpha", "\n", "beta", "gamma"}
	entries := Flatten([]Chapter{{Title: "A", Position: 0}}, tokens)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Preview != "Alpha beta gamma..." {
		t.Errorf("Preview = %q", entries[0].Preview)
	}
}

func TestChapterEnd(t *testing.T) {
	chapters := []Chapter{{Position: 0}, {Position: 40}}
	if got := ChapterEnd(chapters, 0, 100); got != 40 {
		t.Errorf("ChapterEnd(0) = %d, want 40", got)
	}
	if got := ChapterEnd(chapters, 1, 100); got != 100 {
		t.Errorf("ChapterEnd(1) = %d, want 100", got)
	}
}
