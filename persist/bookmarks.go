package persist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sahilm/fuzzy"

	"github.com/TheJupiterDev/Bitpad/editor"
)

// Bookmark is a named copy of a document's title and content, optionally
// pointing at the file the content came from.
type Bookmark struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	FilePath *string `json:"file_path"`
}

// NewBookmark captures doc under name. path is the document's associated
// file, or "" for untitled documents.
func NewBookmark(name string, doc *editor.Document, path string) Bookmark {
	return Bookmark{
		Name:     name,
		Title:    doc.Title(),
		Content:  doc.Content(),
		FilePath: pathPtr(path),
	}
}

// Path returns the bookmarked file path, or "".
func (b Bookmark) Path() string {
	return optionalPath(b.FilePath)
}

// BookmarkStore saves and restores the bookmark list at a fixed path. It is
// independent of the session snapshot.
type BookmarkStore struct {
	path string
}

// NewBookmarkStore returns a store backed by the file at path.
func NewBookmarkStore(path string) *BookmarkStore {
	return &BookmarkStore{path: path}
}

// Path returns the bookmark file location.
func (s *BookmarkStore) Path() string {
	return s.path
}

// Save replaces the bookmark file with bookmarks. Failures are logged and
// swallowed.
func (s *BookmarkStore) Save(bookmarks []Bookmark) {
	if bookmarks == nil {
		bookmarks = []Bookmark{}
	}
	if err := writeJSON(s.path, bookmarks); err != nil {
		logger().Warningf("saving bookmarks failed: %s", err)
	}
}

// Load reads the bookmark list. A missing or unreadable file yields an
// empty list.
func (s *BookmarkStore) Load() []Bookmark {
	var bookmarks []Bookmark
	if err := readJSON(s.path, &bookmarks); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger().Warningf("loading bookmarks failed: %s", err)
		}
		return []Bookmark{}
	}
	if bookmarks == nil {
		bookmarks = []Bookmark{}
	}
	return bookmarks
}

// Resolve returns the title and content to show for b. When the bookmarked
// file still exists its current content is returned under the file's name;
// otherwise the captured title and content are returned.
func (s *BookmarkStore) Resolve(b Bookmark) (title, content string) {
	path := b.Path()
	if path == "" {
		return b.Title, b.Content
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger().Warningf("bookmark %q: %s", b.Name, err)
		}
		return b.Title, b.Content
	}
	return filepath.Base(path), string(data)
}

// AddBookmark returns bookmarks with b appended. A bookmark with the same
// name is replaced in place.
func AddBookmark(bookmarks []Bookmark, b Bookmark) []Bookmark {
	for i := range bookmarks {
		if bookmarks[i].Name == b.Name {
			out := append([]Bookmark(nil), bookmarks...)
			out[i] = b
			return out
		}
	}
	return append(append([]Bookmark(nil), bookmarks...), b)
}

// RemoveBookmark returns bookmarks without the one called name, and whether
// it was present.
func RemoveBookmark(bookmarks []Bookmark, name string) ([]Bookmark, bool) {
	out := make([]Bookmark, 0, len(bookmarks))
	found := false
	for _, b := range bookmarks {
		if b.Name == name {
			found = true
			continue
		}
		out = append(out, b)
	}
	return out, found
}

type bookmarkNames []Bookmark

func (n bookmarkNames) String(i int) string { return n[i].Name }
func (n bookmarkNames) Len() int            { return len(n) }

// SearchBookmarks returns the bookmarks whose names fuzzily match query,
// best match first. An empty query returns every bookmark in list order.
func SearchBookmarks(bookmarks []Bookmark, query string) []Bookmark {
	if query == "" {
		return append([]Bookmark(nil), bookmarks...)
	}
	matches := fuzzy.FindFrom(query, bookmarkNames(bookmarks))
	out := make([]Bookmark, 0, len(matches))
	for _, m := range matches {
		out = append(out, bookmarks[m.Index])
	}
	return out
}
