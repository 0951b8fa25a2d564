package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/TheJupiterDev/Bitpad/autosave"
	"github.com/TheJupiterDev/Bitpad/commands"
	"github.com/TheJupiterDev/Bitpad/editor"
	"github.com/TheJupiterDev/Bitpad/mcptools"
	"github.com/TheJupiterDev/Bitpad/persist"
	"github.com/TheJupiterDev/Bitpad/web"
)

// bitpadApp owns the live session and the bookmark list. Every access to the
// session goes through mu, including the autosaver's read-copy, so edits and
// snapshots never interleave.
type bitpadApp struct {
	mu      sync.Mutex
	session *editor.Session

	snapshots *persist.SnapshotStore
	saver     *autosave.Autosaver

	bmu       sync.Mutex
	bookmarks []persist.Bookmark
	marks     *persist.BookmarkStore

	commands *commands.Registry

	// onQuit is called by the app.quit command.
	onQuit func()
}

// newBitpadApp restores the session and bookmarks and prepares the autosaver.
// The caller runs app.saver.
func newBitpadApp(snapshots *persist.SnapshotStore, marks *persist.BookmarkStore, opts autosave.Options) *bitpadApp {
	app := &bitpadApp{
		session:   snapshots.Load(),
		snapshots: snapshots,
		marks:     marks,
		bookmarks: marks.Load(),
	}
	app.saver = autosave.New(app.snapshot, snapshots.SaveEntries, opts)
	app.commands = commands.NewRegistry(commands.AllCommands(commands.Actions{
		NewFile: func() { app.NewDocument(editor.DefaultTitle, "") },
		CloseTab: func() {
			if err := app.CloseDocument(web.CurrentDocument); err != nil {
				logger().Warningf("close tab: %s", err)
			}
		},
		SaveFile: func() {
			if err := app.SaveFile(web.CurrentDocument); err != nil {
				logger().Warningf("save: %s", err)
			}
		},
		Undo:     func() { app.Undo() },
		Redo:     func() { app.Redo() },
		Snapshot: app.saver.Flush,
		Quit: func() {
			if app.onQuit != nil {
				app.onQuit()
			}
		},
	}))
	return app
}

func logger() commonlog.Logger {
	return commonlog.GetLogger("bitpad")
}

var (
	_ web.EditorState       = (*bitpadApp)(nil)
	_ mcptools.EditorAccess = (*bitpadApp)(nil)
)

// snapshot returns a copy of the session suitable for writing from another
// goroutine, and the revision it was taken at.
func (a *bitpadApp) snapshot() ([]persist.SnapshotEntry, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return persist.EntriesFromSession(a.session), a.session.Revision()
}

// changed asks for an early snapshot after a structural change. It must be
// called without mu held.
func (a *bitpadApp) changed() {
	a.saver.Request()
}

// withSession runs fn under the session lock.
func (a *bitpadApp) withSession(fn func(s *editor.Session) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.session)
}

// docIndex maps web.CurrentDocument to the current index. Callers hold mu.
func (a *bitpadApp) docIndex(index int) int {
	if index == web.CurrentDocument {
		return a.session.CurrentIndex()
	}
	return index
}

func (a *bitpadApp) ListDocuments() []web.DocumentInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	docs := a.session.Documents()
	infos := make([]web.DocumentInfo, len(docs))
	for i, doc := range docs {
		path, _, _ := a.session.Path(i)
		infos[i] = web.DocumentInfo{
			Index:   i,
			ID:      doc.ID().String(),
			Title:   doc.Title(),
			Path:    path,
			Dirty:   doc.Buffer().Dirty(),
			Current: i == a.session.CurrentIndex(),
		}
	}
	return infos
}

func (a *bitpadApp) CurrentIndex() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.CurrentIndex()
}

func (a *bitpadApp) NewDocument(title, content string) int {
	a.mu.Lock()
	idx := a.session.CreateDocument(title, content)
	a.mu.Unlock()
	a.changed()
	return idx
}

func (a *bitpadApp) InsertDocument(index int, title, content string) (int, error) {
	a.mu.Lock()
	idx, err := a.session.InsertDocument(index, title, content)
	a.mu.Unlock()
	if err == nil {
		a.changed()
	}
	return idx, err
}

func (a *bitpadApp) CloseDocument(index int) error {
	err := a.withSession(func(s *editor.Session) error {
		return s.CloseDocument(a.docIndex(index))
	})
	if err == nil {
		a.changed()
	}
	return err
}

func (a *bitpadApp) RenameDocument(index int, title string) error {
	err := a.withSession(func(s *editor.Session) error {
		return s.RenameDocument(a.docIndex(index), title)
	})
	if err == nil {
		a.changed()
	}
	return err
}

func (a *bitpadApp) SetCurrent(index int) error {
	return a.withSession(func(s *editor.Session) error {
		return s.SetCurrent(index)
	})
}

func (a *bitpadApp) ReadDocument(index int) (web.DocumentText, error) {
	var out web.DocumentText
	err := a.withSession(func(s *editor.Session) error {
		doc, err := s.DocumentAt(a.docIndex(index))
		if err != nil {
			return err
		}
		sel := doc.Buffer().Selection()
		out = web.DocumentText{
			Title:  doc.Title(),
			Text:   doc.Content(),
			Anchor: sel.Anchor,
			Cursor: sel.Cursor,
		}
		return nil
	})
	return out, err
}

// WriteDocument replaces the whole text of a document as one undoable edit.
func (a *bitpadApp) WriteDocument(index int, text string) error {
	return a.withSession(func(s *editor.Session) error {
		doc, err := s.DocumentAt(a.docIndex(index))
		if err != nil {
			return err
		}
		buf := doc.Buffer()
		if buf.Text() != text {
			buf.ApplyEdit(0, buf.Text(), text)
		}
		return nil
	})
}

func (a *bitpadApp) SetSelection(index int, sel editor.Selection) error {
	return a.withSession(func(s *editor.Session) error {
		doc, err := s.DocumentAt(a.docIndex(index))
		if err != nil {
			return err
		}
		doc.Buffer().SetSelection(sel)
		return nil
	})
}

func (a *bitpadApp) OpenFile(path string) (int, error) {
	a.mu.Lock()
	idx, err := a.session.OpenFile(path)
	a.mu.Unlock()
	if err != nil {
		logger().Warningf("%s", err)
		return -1, err
	}
	a.changed()
	return idx, nil
}

func (a *bitpadApp) SaveFile(index int) error {
	err := a.withSession(func(s *editor.Session) error {
		return s.SaveDocument(a.docIndex(index))
	})
	if err != nil {
		logger().Warningf("%s", err)
	}
	return err
}

func (a *bitpadApp) SaveFileAs(index int, path string) error {
	err := a.withSession(func(s *editor.Session) error {
		return s.SaveDocumentAs(a.docIndex(index), path)
	})
	if err != nil {
		logger().Warningf("%s", err)
		return err
	}
	a.changed()
	return nil
}

func (a *bitpadApp) Undo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Current().Buffer().Undo()
}

func (a *bitpadApp) Redo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Current().Buffer().Redo()
}

func (a *bitpadApp) FindNext(q editor.Query) (editor.Match, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return editor.FindNext(a.session.Current().Buffer(), q)
}

// Replace replaces the selected match and moves on to the next one.
func (a *bitpadApp) Replace(q editor.Query, replacement string) web.ReplaceResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf := a.session.Current().Buffer()
	if !editor.ReplaceCurrent(buf, q, replacement) {
		return web.ReplaceResult{}
	}
	m, found := editor.FindNext(buf, q)
	return web.ReplaceResult{Replaced: true, Found: found, Start: m.Start, End: m.End}
}

func (a *bitpadApp) ReplaceAll(q editor.Query, replacement string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := editor.ReplaceAll(a.session.Current().Buffer(), q, replacement)
	logger().Debugf("replaced %d occurrence(s) of %q", n, q.Pattern)
	return n
}

func (a *bitpadApp) CountMatches(q editor.Query) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(editor.FindAll(a.session.Current().Buffer(), q))
}

func (a *bitpadApp) ListBookmarks() []persist.Bookmark {
	a.bmu.Lock()
	defer a.bmu.Unlock()
	return append([]persist.Bookmark(nil), a.bookmarks...)
}

// AddBookmark captures the document at index under name and persists the
// bookmark list.
func (a *bitpadApp) AddBookmark(name string, index int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("bookmark name must not be empty")
	}

	var b persist.Bookmark
	err := a.withSession(func(s *editor.Session) error {
		i := a.docIndex(index)
		doc, err := s.DocumentAt(i)
		if err != nil {
			return err
		}
		path, _, _ := s.Path(i)
		b = persist.NewBookmark(name, doc, path)
		return nil
	})
	if err != nil {
		return err
	}

	a.bmu.Lock()
	defer a.bmu.Unlock()
	a.bookmarks = persist.AddBookmark(a.bookmarks, b)
	a.marks.Save(a.bookmarks)
	return nil
}

func (a *bitpadApp) RemoveBookmark(name string) bool {
	a.bmu.Lock()
	defer a.bmu.Unlock()
	var removed bool
	a.bookmarks, removed = persist.RemoveBookmark(a.bookmarks, name)
	if removed {
		a.marks.Save(a.bookmarks)
	}
	return removed
}

func (a *bitpadApp) ResolveBookmark(name string) (string, string, error) {
	a.bmu.Lock()
	defer a.bmu.Unlock()
	for _, b := range a.bookmarks {
		if b.Name == name {
			title, content := a.marks.Resolve(b)
			return title, content, nil
		}
	}
	return "", "", fmt.Errorf("no bookmark named %q", name)
}

func (a *bitpadApp) SearchBookmarks(query string) []persist.Bookmark {
	a.bmu.Lock()
	defer a.bmu.Unlock()
	return persist.SearchBookmarks(a.bookmarks, query)
}

func (a *bitpadApp) ListCommands() []commands.Command {
	return a.commands.Commands()
}

func (a *bitpadApp) RunCommand(id string) error {
	return a.commands.Run(id)
}
