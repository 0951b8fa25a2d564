package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func titles(s *Session) []string {
	var out []string
	for _, d := range s.Documents() {
		out = append(out, d.Title())
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := NewSession()
	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex = %d, want 0", s.CurrentIndex())
	}
	doc := s.Current()
	if doc == nil {
		t.Fatal("Current should not be nil")
	}
	if doc.Title() != DefaultTitle {
		t.Errorf("Title = %q, want %q", doc.Title(), DefaultTitle)
	}
	if doc.Content() != "" {
		t.Errorf("Content = %q, want empty", doc.Content())
	}
	if _, ok, _ := s.Path(0); ok {
		t.Error("new document should have no path")
	}
}

func TestCreateDocument(t *testing.T) {
	s := NewSession()

	idx1 := s.CreateDocument("one", "1")
	idx2 := s.CreateDocument("two", "2")

	if idx1 != 1 || idx2 != 2 {
		t.Errorf("indices = (%d, %d), want (1, 2)", idx1, idx2)
	}
	if s.Count() != 3 {
		t.Errorf("Count = %d, want 3", s.Count())
	}
	// Last created document should be current.
	if s.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex = %d, want 2", s.CurrentIndex())
	}
	if s.Current().Content() != "2" {
		t.Errorf("Current content = %q, want %q", s.Current().Content(), "2")
	}
}

func TestInsertDocument(t *testing.T) {
	s := NewSession()
	s.CreateDocument("b", "")

	idx, err := s.InsertDocument(0, "a", "first")
	if err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
	if diff := cmp.Diff([]string{"a", DefaultTitle, "b"}, titles(s)); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex = %d, want 0", s.CurrentIndex())
	}

	if _, err := s.InsertDocument(4, "x", ""); err == nil {
		t.Error("InsertDocument past Count should fail")
	}
	if _, err := s.InsertDocument(-1, "x", ""); err == nil {
		t.Error("InsertDocument at negative index should fail")
	}
	if _, err := s.InsertDocument(3, "end", ""); err != nil {
		t.Errorf("InsertDocument at Count should append: %v", err)
	}
}

func TestCloseLastDocumentIsNoop(t *testing.T) {
	s := NewSession()
	doc := s.Current()

	if err := s.CloseDocument(0); err != nil {
		t.Fatalf("CloseDocument: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if s.Current() != doc {
		t.Error("sole document should be unchanged")
	}
}

func TestCloseDocumentAdjustsCurrent(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		close      int
		wantActive int
		wantTitles []string
	}{
		{"before current", 2, 0, 1, []string{"b", "c"}},
		{"current middle", 1, 1, 1, []string{"a", "c"}},
		{"current last", 2, 2, 1, []string{"a", "b"}},
		{"after current", 0, 2, 0, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newEmptySession()
			s.CreateDocument("a", "")
			s.CreateDocument("b", "")
			s.CreateDocument("c", "")
			if err := s.SetCurrent(tt.current); err != nil {
				t.Fatalf("SetCurrent: %v", err)
			}

			if err := s.CloseDocument(tt.close); err != nil {
				t.Fatalf("CloseDocument: %v", err)
			}
			if s.CurrentIndex() != tt.wantActive {
				t.Errorf("CurrentIndex = %d, want %d", s.CurrentIndex(), tt.wantActive)
			}
			if diff := cmp.Diff(tt.wantTitles, titles(s)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCountNeverDropsBelowOne(t *testing.T) {
	s := NewSession()
	for i := 0; i < 5; i++ {
		s.CreateDocument("doc", "")
	}
	for i := 0; i < 10; i++ {
		if err := s.CloseDocument(0); err != nil {
			t.Fatalf("CloseDocument: %v", err)
		}
		if s.Count() < 1 {
			t.Fatalf("Count = %d after close %d", s.Count(), i)
		}
		if s.Current() == nil {
			t.Fatalf("no current document after close %d", i)
		}
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	s := NewSession()

	checks := map[string]error{
		"CloseDocument":  s.CloseDocument(3),
		"RenameDocument": s.RenameDocument(-1, "x"),
		"SetCurrent":     s.SetCurrent(1),
		"SetPath":        s.SetPath(7, "/tmp/x"),
	}
	_, err := s.DocumentAt(1)
	checks["DocumentAt"] = err

	for name, err := range checks {
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Errorf("%s: err = %v, want *IndexError", name, err)
		}
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d after failed ops, want 1", s.Count())
	}
}

func TestRenameDocument(t *testing.T) {
	s := NewSession()

	if err := s.RenameDocument(0, "  notes  "); err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}
	if got := s.Current().Title(); got != "notes" {
		t.Errorf("Title = %q, want %q", got, "notes")
	}

	if err := s.RenameDocument(0, "   "); err != nil {
		t.Fatalf("RenameDocument blank: %v", err)
	}
	if got := s.Current().Title(); got != "notes" {
		t.Errorf("Title = %q after blank rename, want %q", got, "notes")
	}
}

func TestPathFollowsDocumentAcrossCloseAndInsert(t *testing.T) {
	s := newEmptySession()
	s.CreateDocument("a", "")
	s.CreateDocument("b", "")
	s.CreateDocument("c", "")
	if err := s.SetPath(2, "/tmp/c.txt"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	if err := s.CloseDocument(0); err != nil {
		t.Fatalf("CloseDocument: %v", err)
	}
	if _, err := s.InsertDocument(0, "z", ""); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	// "c" moved from index 2 to 1 and back to 2; "b" never had a path.
	if p, ok, _ := s.Path(2); !ok || p != "/tmp/c.txt" {
		t.Errorf("Path(2) = (%q, %v), want (%q, true)", p, ok, "/tmp/c.txt")
	}
	if _, ok, _ := s.Path(1); ok {
		t.Error("Path(1) should be unset")
	}

	if err := s.SetPath(2, ""); err != nil {
		t.Fatalf("SetPath clear: %v", err)
	}
	if _, ok, _ := s.Path(2); ok {
		t.Error("Path(2) should be cleared")
	}
}

func TestDocumentIDsAreUnique(t *testing.T) {
	s := NewSession()
	s.CreateDocument("a", "")
	s.CreateDocument("b", "")

	seen := make(map[DocumentID]bool)
	for _, d := range s.Documents() {
		if seen[d.ID()] {
			t.Fatalf("duplicate id %s", d.ID())
		}
		seen[d.ID()] = true
	}
}

func TestSessionOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s := NewSession()
	idx, err := s.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}
	doc := s.Current()
	if doc.Content() != "hello" {
		t.Errorf("Content = %q, want %q", doc.Content(), "hello")
	}
	if doc.Title() != "hello.txt" {
		t.Errorf("Title = %q, want %q", doc.Title(), "hello.txt")
	}
	if p, ok, _ := s.Path(idx); !ok || p != path {
		t.Errorf("Path = (%q, %v), want (%q, true)", p, ok, path)
	}

	// Opening the same file again switches to it.
	s.SetCurrent(0)
	again, err := s.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile again: %v", err)
	}
	if again != idx || s.Count() != 2 {
		t.Errorf("reopen = %d with Count %d, want %d with Count 2", again, s.Count(), idx)
	}
	if s.CurrentIndex() != idx {
		t.Errorf("CurrentIndex = %d, want %d", s.CurrentIndex(), idx)
	}
}

func TestSessionOpenFileNonexistent(t *testing.T) {
	s := NewSession()
	if _, err := s.OpenFile("/nonexistent/path/file.txt"); err == nil {
		t.Fatal("OpenFile with nonexistent path should return error")
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d after failed open, want 1", s.Count())
	}
}

func TestSaveDocumentWithoutPath(t *testing.T) {
	s := NewSession()
	if err := s.SaveDocument(0); !errors.Is(err, ErrNoPath) {
		t.Errorf("SaveDocument err = %v, want ErrNoPath", err)
	}
}

func TestSaveDocumentAs(t *testing.T) {
	s := NewSession()
	s.Current().Buffer().SetText("draft")

	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := s.SaveDocumentAs(0, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}
	if got := s.Current().Title(); got != "draft.txt" {
		t.Errorf("Title = %q, want %q", got, "draft.txt")
	}
	if p, ok, _ := s.Path(0); !ok || p != path {
		t.Errorf("Path = (%q, %v), want (%q, true)", p, ok, path)
	}

	s.Current().Buffer().SetText("final")
	if err := s.SaveDocument(0); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "final" {
		t.Errorf("file content = %q, want %q", string(data), "final")
	}
}

func TestRevisionMonotonic(t *testing.T) {
	s := NewSession()
	last := s.Revision()
	step := func(name string, changed bool) {
		t.Helper()
		rev := s.Revision()
		if rev < last {
			t.Fatalf("%s: revision went backwards %d -> %d", name, last, rev)
		}
		if changed && rev == last {
			t.Errorf("%s: revision unchanged", name)
		}
		if !changed && rev != last {
			t.Errorf("%s: revision changed %d -> %d", name, last, rev)
		}
		last = rev
	}

	s.CreateDocument("b", "")
	step("create", true)
	s.Current().Buffer().SetText("edited")
	step("edit", true)
	s.RenameDocument(1, "b")
	step("same title", false)
	s.CloseDocument(1)
	step("close edited", true)
	s.Current().Buffer().SetSelection(Selection{Anchor: 0, Cursor: 0})
	step("selection", false)
}
