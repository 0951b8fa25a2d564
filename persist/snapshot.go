package persist

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/TheJupiterDev/Bitpad/editor"
)

// SnapshotEntry is the persisted form of one document.
type SnapshotEntry struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Path    *string `json:"path"`
}

// UnmarshalJSON decodes an entry, titling it editor.DefaultTitle when the
// "title" key is absent or null. An explicit empty title is kept.
func (e *SnapshotEntry) UnmarshalJSON(data []byte) error {
	type plain SnapshotEntry
	p := plain{Title: editor.DefaultTitle}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = SnapshotEntry(p)
	return nil
}

// SnapshotStore saves and restores the whole session at a fixed path.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore returns a store backed by the file at path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}

// EntriesFromSession copies the session into snapshot entries, one per
// document in display order. The result shares no state with the session.
func EntriesFromSession(sess *editor.Session) []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, sess.Count())
	for i, doc := range sess.Documents() {
		p, _, _ := sess.Path(i)
		entries = append(entries, SnapshotEntry{
			Title:   doc.Title(),
			Content: doc.Content(),
			Path:    pathPtr(p),
		})
	}
	return entries
}

// Save writes the session to disk. Failures are logged and swallowed.
func (s *SnapshotStore) Save(sess *editor.Session) {
	s.SaveEntries(EntriesFromSession(sess))
}

// SaveEntries writes entries to disk, replacing the previous snapshot.
// Failures are logged and swallowed.
func (s *SnapshotStore) SaveEntries(entries []SnapshotEntry) {
	if entries == nil {
		entries = []SnapshotEntry{}
	}
	if err := writeJSON(s.path, entries); err != nil {
		logger().Warningf("autosave failed: %s", err)
		return
	}
	logger().Debugf("saved %d documents to %s", len(entries), s.path)
}

// Load restores the session from disk. A missing, unreadable, malformed or
// empty snapshot yields a session with one empty untitled document.
func (s *SnapshotStore) Load() *editor.Session {
	var entries []SnapshotEntry
	if err := readJSON(s.path, &entries); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger().Debugf("no snapshot at %s", s.path)
		} else {
			logger().Warningf("restore failed: %s", err)
		}
		return editor.NewSession()
	}
	if len(entries) == 0 {
		return editor.NewSession()
	}
	return SessionFromEntries(entries)
}

// SessionFromEntries builds a session holding one document per entry, in
// order, keeping each title as given. The last document is current, as if
// each had just been opened. An empty slice yields a fresh session.
func SessionFromEntries(entries []SnapshotEntry) *editor.Session {
	sess := editor.NewSession()
	if len(entries) == 0 {
		return sess
	}
	for i, e := range entries {
		// The placeholder document created by NewSession stays at the end
		// until every entry is in place.
		idx, _ := sess.InsertDocument(i, e.Title, e.Content)
		if p := optionalPath(e.Path); p != "" {
			sess.SetPath(idx, p)
		}
	}
	sess.CloseDocument(sess.Count() - 1)
	return sess
}
