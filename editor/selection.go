package editor

// Selection represents a text selection as two byte offsets into buffer text.
// Anchor is where the selection started, Cursor is where it currently extends to.
// When Anchor equals Cursor the selection is a caret at that offset.
type Selection struct {
	Anchor, Cursor int
}

// Caret returns a collapsed selection at offset.
func Caret(offset int) Selection {
	return Selection{Anchor: offset, Cursor: offset}
}

// Active reports whether the selection covers a non-empty range.
func (s Selection) Active() bool {
	return s.Anchor != s.Cursor
}

// Ordered returns the selection bounds in ascending order (start, end).
func (s Selection) Ordered() (start, end int) {
	if s.Anchor <= s.Cursor {
		return s.Anchor, s.Cursor
	}
	return s.Cursor, s.Anchor
}

// Text extracts the selected substring from content.
func (s Selection) Text(content string) string {
	start, end := s.Ordered()
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	if start >= end {
		return ""
	}
	return content[start:end]
}

// clamp keeps both offsets within [0, length].
func (s Selection) clamp(length int) Selection {
	return Selection{
		Anchor: clampOffset(s.Anchor, length),
		Cursor: clampOffset(s.Cursor, length),
	}
}

func clampOffset(v, length int) int {
	if v < 0 {
		return 0
	}
	if v > length {
		return length
	}
	return v
}
