package editor

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Query describes a find or replace request.
type Query struct {
	Pattern       string
	CaseSensitive bool
	WholeWord     bool
}

// Match is a byte range [Start, End) of buffer text that satisfied a Query.
type Match struct {
	Start, End int
}

// matcher compares candidate windows of text against a query.
type matcher struct {
	q      Query
	folder cases.Caser
	folded string
	nrunes int
}

func newMatcher(q Query) *matcher {
	m := &matcher{
		q:      q,
		nrunes: utf8.RuneCountInString(q.Pattern),
	}
	if !q.CaseSensitive {
		m.folder = cases.Fold()
		m.folded = m.folder.String(q.Pattern)
	}
	return m
}

// equal compares s with the pattern under the case rule.
func (m *matcher) equal(s string) bool {
	if m.q.CaseSensitive {
		return s == m.q.Pattern
	}
	return m.folder.String(s) == m.folded
}

// at reports whether a match starts at byte offset i and returns its end.
func (m *matcher) at(text string, i int) (int, bool) {
	end := i
	for n := 0; n < m.nrunes; n++ {
		if end >= len(text) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	if !m.equal(text[i:end]) {
		return 0, false
	}
	if m.q.WholeWord && !wordBoundary(text, i, end) {
		return 0, false
	}
	return end, true
}

// scan looks for the first match starting in [from, limit).
func (m *matcher) scan(text string, from, limit int) (Match, bool) {
	for i := from; i < limit; {
		if end, ok := m.at(text, i); ok {
			return Match{Start: i, End: end}, true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return Match{}, false
}

func wordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FindNext searches buf for the next match of q after the current selection,
// wrapping once to the start of the text. On success the match becomes the
// selection. On failure, or when the pattern is empty, the selection is left
// unchanged.
func FindNext(buf *Buffer, q Query) (Match, bool) {
	return find(buf, q, true)
}

func find(buf *Buffer, q Query, wrap bool) (Match, bool) {
	if q.Pattern == "" {
		return Match{}, false
	}
	m := newMatcher(q)
	text := buf.Text()
	_, start := buf.Selection().Ordered()

	match, ok := m.scan(text, start, len(text))
	if !ok && wrap && start > 0 {
		match, ok = m.scan(text, 0, start)
	}
	if !ok {
		return Match{}, false
	}
	// Match bounds already sit on the boundaries scan stepped through.
	buf.sel = Selection{Anchor: match.Start, Cursor: match.End}
	return match, true
}

// ReplaceCurrent replaces the selected text with replacement when the
// selection equals q.Pattern under q's case rule. It does not search: a prior
// FindNext is expected to have positioned the selection. On success the caret
// is left after the inserted text.
func ReplaceCurrent(buf *Buffer, q Query, replacement string) bool {
	if q.Pattern == "" || !buf.HasSelection() {
		return false
	}
	if !newMatcher(q).equal(buf.SelectedText()) {
		return false
	}
	buf.ReplaceSelection(replacement)
	return true
}

// ReplaceAll replaces every match of q in buf with replacement, scanning
// forward from the start of the text, and returns the number of
// replacements. Text inserted by a replacement is never searched again, so
// the loop terminates even when replacement contains the pattern.
func ReplaceAll(buf *Buffer, q Query, replacement string) int {
	if q.Pattern == "" {
		return 0
	}
	buf.SetCursor(0)

	count := 0
	for {
		if _, ok := find(buf, q, false); !ok {
			return count
		}
		if !ReplaceCurrent(buf, q, replacement) {
			panic("editor: selection set by find does not match query")
		}
		count++
	}
}

// FindAll returns every non-overlapping match of q in buf in text order.
// The selection is not changed.
func FindAll(buf *Buffer, q Query) []Match {
	if q.Pattern == "" {
		return nil
	}
	m := newMatcher(q)
	text := buf.Text()
	var matches []Match
	for from := 0; from < len(text); {
		match, ok := m.scan(text, from, len(text))
		if !ok {
			break
		}
		matches = append(matches, match)
		from = match.End
	}
	return matches
}
