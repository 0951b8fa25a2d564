package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TheJupiterDev/Bitpad/editor"
)

func TestBookmarkRoundTrip(t *testing.T) {
	store := NewBookmarkStore(filepath.Join(t.TempDir(), "bookmarks.json"))
	want := []Bookmark{
		{Name: "todo", Title: "Untitled", Content: "buy milk"},
		{Name: "cfg", Title: "cfg.yaml", Content: "a: 1", FilePath: strPtr("/etc/cfg.yaml")},
	}
	store.Save(want)

	if diff := cmp.Diff(want, store.Load()); diff != "" {
		t.Errorf("bookmarks mismatch (-want +got):\n%s", diff)
	}
}

func TestBookmarkFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	NewBookmarkStore(path).Save([]Bookmark{{Name: "n", Title: "t", Content: "c"}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := `[{"name":"n","title":"t","content":"c","file_path":null}]`
	if string(data) != want {
		t.Errorf("file = %s\nwant %s", data, want)
	}
}

func TestBookmarkLoadMissingOrCorrupt(t *testing.T) {
	dir := t.TempDir()
	if got := NewBookmarkStore(filepath.Join(dir, "none.json")).Load(); len(got) != 0 || got == nil {
		t.Errorf("missing file: Load = %#v, want empty non-nil", got)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("]]"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got := NewBookmarkStore(bad).Load(); len(got) != 0 {
		t.Errorf("corrupt file: Load = %#v, want empty", got)
	}
}

func TestBookmarkStoresAreIndependent(t *testing.T) {
	dir := t.TempDir()
	snaps := NewSnapshotStore(filepath.Join(dir, "autosave.json"))
	marks := NewBookmarkStore(filepath.Join(dir, "bookmarks.json"))

	marks.Save([]Bookmark{{Name: "x"}})
	snaps.SaveEntries([]SnapshotEntry{{Title: "doc"}})

	if got := marks.Load(); len(got) != 1 || got[0].Name != "x" {
		t.Errorf("bookmarks = %#v, want one named x", got)
	}
}

func TestBookmarkResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.txt")
	if err := os.WriteFile(path, []byte("captured"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	sess := editor.NewSession()
	idx, err := sess.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	doc, _ := sess.DocumentAt(idx)
	p, _, _ := sess.Path(idx)
	b := NewBookmark("live", doc, p)

	store := NewBookmarkStore(filepath.Join(dir, "bookmarks.json"))

	// File changed on disk after capture: live content wins.
	if err := os.WriteFile(path, []byte("fresh"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	title, content := store.Resolve(b)
	if title != "live.txt" || content != "fresh" {
		t.Errorf("Resolve = (%q, %q), want (%q, %q)", title, content, "live.txt", "fresh")
	}

	// File deleted: fall back to the captured snapshot.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	title, content = store.Resolve(b)
	if title != "live.txt" || content != "captured" {
		t.Errorf("Resolve = (%q, %q), want (%q, %q)", title, content, "live.txt", "captured")
	}
}

func TestBookmarkResolveUntitled(t *testing.T) {
	sess := editor.NewSession()
	sess.RenameDocument(0, "scratch")
	sess.Current().Buffer().SetText("notes")
	b := NewBookmark("s", sess.Current(), "")

	title, content := NewBookmarkStore("").Resolve(b)
	if title != "scratch" || content != "notes" {
		t.Errorf("Resolve = (%q, %q), want (%q, %q)", title, content, "scratch", "notes")
	}

	// Later edits do not leak into the bookmark.
	sess.Current().Buffer().SetText("changed")
	if _, content := NewBookmarkStore("").Resolve(b); content != "notes" {
		t.Errorf("content = %q after edit, want %q", content, "notes")
	}
}

func TestAddRemoveBookmark(t *testing.T) {
	var list []Bookmark
	list = AddBookmark(list, Bookmark{Name: "a", Content: "1"})
	list = AddBookmark(list, Bookmark{Name: "b", Content: "2"})
	list = AddBookmark(list, Bookmark{Name: "a", Content: "3"})

	want := []Bookmark{{Name: "a", Content: "3"}, {Name: "b", Content: "2"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("after add mismatch (-want +got):\n%s", diff)
	}

	list, ok := RemoveBookmark(list, "a")
	if !ok {
		t.Error("RemoveBookmark(a) should report found")
	}
	if _, ok := RemoveBookmark(list, "a"); ok {
		t.Error("RemoveBookmark(a) twice should report not found")
	}
	if len(list) != 1 || list[0].Name != "b" {
		t.Errorf("after remove = %#v, want only b", list)
	}
}

func TestSearchBookmarks(t *testing.T) {
	list := []Bookmark{
		{Name: "meeting notes"},
		{Name: "grocery list"},
		{Name: "notes on go"},
	}

	got := SearchBookmarks(list, "notes")
	if len(got) != 2 {
		t.Fatalf("SearchBookmarks = %d results, want 2", len(got))
	}
	for _, b := range got {
		if b.Name == "grocery list" {
			t.Errorf("unexpected match %q", b.Name)
		}
	}

	if got := SearchBookmarks(list, ""); len(got) != 3 {
		t.Errorf("empty query = %d results, want 3", len(got))
	}
	if got := SearchBookmarks(list, "zzz"); len(got) != 0 {
		t.Errorf("no-match query = %d results, want 0", len(got))
	}
}
