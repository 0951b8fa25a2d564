package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultTitle is the title given to new untitled documents.
const DefaultTitle = "Untitled"

// ErrNoPath is returned when saving a document that has no associated file.
var ErrNoPath = errors.New("document has no path; use SaveAs")

// IndexError reports an operation on a document index outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("document index %d out of range [0, %d)", e.Index, e.Count)
}

// DocumentID identifies a document for its whole lifetime, independent of
// its position in the session.
type DocumentID = uuid.UUID

// Document is one open buffer with its display title.
type Document struct {
	id    DocumentID
	title string
	buf   *Buffer
}

func newDocument(title, content string) *Document {
	return &Document{
		id:    uuid.New(),
		title: title,
		buf:   NewBuffer(content),
	}
}

// ID returns the document's stable identifier.
func (d *Document) ID() DocumentID { return d.id }

// Title returns the display title.
func (d *Document) Title() string { return d.title }

// Buffer returns the document's text buffer.
func (d *Document) Buffer() *Buffer { return d.buf }

// Content returns the full text of the document.
func (d *Document) Content() string { return d.buf.Text() }

// Session tracks the ordered set of open documents and which one is current.
// It always holds at least one document. A Session is not safe for
// concurrent use; callers serialize access.
//
// Documents are addressed by position. Side tables are keyed by DocumentID so
// inserting or closing a document never requires renumbering them.
type Session struct {
	order  []DocumentID
	docs   map[DocumentID]*Document
	paths  map[DocumentID]string
	active int

	// rev counts structural changes plus the versions of closed buffers so
	// Revision never goes backwards.
	rev uint64
}

// NewSession creates a session holding one empty untitled document.
func NewSession() *Session {
	s := newEmptySession()
	s.CreateDocument(DefaultTitle, "")
	return s
}

// newEmptySession returns a session with no documents. It must be filled
// before it is handed out.
func newEmptySession() *Session {
	return &Session{
		docs:   make(map[DocumentID]*Document),
		paths:  make(map[DocumentID]string),
		active: -1,
	}
}

// Count returns the number of open documents.
func (s *Session) Count() int {
	return len(s.order)
}

// CurrentIndex returns the index of the current document.
func (s *Session) CurrentIndex() int {
	return s.active
}

// Current returns the current document.
func (s *Session) Current() *Document {
	if s.active < 0 || s.active >= len(s.order) {
		return nil
	}
	return s.docs[s.order[s.active]]
}

// SetCurrent makes the document at index current.
func (s *Session) SetCurrent(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	if s.active != index {
		s.active = index
		s.rev++
	}
	return nil
}

// DocumentAt returns the document at index.
func (s *Session) DocumentAt(index int) (*Document, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	return s.docs[s.order[index]], nil
}

// Documents returns all open documents in display order.
func (s *Session) Documents() []*Document {
	docs := make([]*Document, len(s.order))
	for i, id := range s.order {
		docs[i] = s.docs[id]
	}
	return docs
}

// CreateDocument appends a new document, makes it current and returns its
// index.
func (s *Session) CreateDocument(title, content string) int {
	idx, _ := s.InsertDocument(len(s.order), title, content)
	return idx
}

// InsertDocument inserts a new document at index, shifting later documents
// one position to the right, and makes it current. index may equal Count to
// append.
func (s *Session) InsertDocument(index int, title, content string) (int, error) {
	if index < 0 || index > len(s.order) {
		return -1, &IndexError{Index: index, Count: len(s.order)}
	}
	doc := newDocument(title, content)
	s.docs[doc.id] = doc
	s.order = append(s.order, uuid.Nil)
	copy(s.order[index+1:], s.order[index:])
	s.order[index] = doc.id
	s.active = index
	s.rev++
	return index, nil
}

// CloseDocument removes the document at index. Closing the only remaining
// document is a no-op. After removal the current index is adjusted:
//   - If the closed document was before the current one, current shifts down by one.
//   - If the closed document was current and was last, current clamps to the
//     new last index.
//   - Otherwise current stays where it is.
func (s *Session) CloseDocument(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	if len(s.order) == 1 {
		return nil
	}

	id := s.order[index]
	s.rev += s.docs[id].buf.Version() + 1
	delete(s.docs, id)
	delete(s.paths, id)
	s.order = append(s.order[:index], s.order[index+1:]...)

	if index < s.active {
		// Closed a document before the current one: shift down.
		s.active--
	} else if s.active >= len(s.order) {
		s.active = len(s.order) - 1
	}
	return nil
}

// RenameDocument sets the title of the document at index. Titles are trimmed;
// a blank title leaves the document unchanged.
func (s *Session) RenameDocument(index int, title string) error {
	doc, err := s.DocumentAt(index)
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" || title == doc.title {
		return nil
	}
	doc.title = title
	s.rev++
	return nil
}

// Path returns the file associated with the document at index.
func (s *Session) Path(index int) (string, bool, error) {
	if err := s.check(index); err != nil {
		return "", false, err
	}
	p, ok := s.paths[s.order[index]]
	return p, ok, nil
}

// SetPath associates path with the document at index. An empty path removes
// the association.
func (s *Session) SetPath(index int, path string) error {
	if err := s.check(index); err != nil {
		return err
	}
	id := s.order[index]
	if path == "" {
		delete(s.paths, id)
	} else {
		s.paths[id] = path
	}
	s.rev++
	return nil
}

// OpenFile opens the file at path in a new document titled with the file's
// base name. If a document for the same absolute path is already open, it
// becomes current instead of opening a duplicate. Returns the document index.
func (s *Session) OpenFile(path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return -1, err
	}

	for i, id := range s.order {
		if s.paths[id] == absPath {
			return i, s.SetCurrent(i)
		}
	}

	doc := newDocument(filepath.Base(absPath), "")
	if err := doc.buf.Load(absPath); err != nil {
		return -1, fmt.Errorf("open %s: %w", absPath, err)
	}
	idx := len(s.order)
	s.docs[doc.id] = doc
	s.order = append(s.order, doc.id)
	s.paths[doc.id] = absPath
	s.active = idx
	s.rev++
	return idx, nil
}

// SaveDocument writes the document at index to its associated file.
func (s *Session) SaveDocument(index int) error {
	path, ok, err := s.Path(index)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPath
	}
	doc := s.docs[s.order[index]]
	if err := doc.buf.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SaveDocumentAs writes the document at index to path, associates the path
// with it and retitles it to the file's base name.
func (s *Session) SaveDocumentAs(index int, path string) error {
	doc, err := s.DocumentAt(index)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := doc.buf.Save(absPath); err != nil {
		return fmt.Errorf("save %s: %w", absPath, err)
	}
	s.paths[doc.id] = absPath
	doc.title = filepath.Base(absPath)
	s.rev++
	return nil
}

// Revision returns a counter that changes whenever the session or any of its
// documents changes. It never decreases.
func (s *Session) Revision() uint64 {
	rev := s.rev
	for _, doc := range s.docs {
		rev += doc.buf.Version()
	}
	return rev
}

func (s *Session) check(index int) error {
	if index < 0 || index >= len(s.order) {
		return &IndexError{Index: index, Count: len(s.order)}
	}
	return nil
}
