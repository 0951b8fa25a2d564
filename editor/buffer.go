package editor

import (
	"os"
	"unicode/utf8"
)

// editOp records a single edit for undo/redo support.
type editOp struct {
	offset  int
	oldText string
	newText string
}

// Buffer manages the text content of a single open document together with
// its selection and undo history. File association lives in the Session.
type Buffer struct {
	text      string // current text content
	savedText string // text at last save/open (for dirty comparison)
	sel       Selection
	version   uint64
	undoStack []editOp
	redoStack []editOp
}

// NewBuffer creates a buffer holding text with the caret at offset 0.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text, savedText: text}
}

// Load reads the file at path into the buffer, replacing any existing content
// and history. The buffer is clean afterwards.
func (b *Buffer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b.text = string(data)
	b.savedText = b.text
	b.sel = Selection{}
	b.undoStack = nil
	b.redoStack = nil
	b.version++
	return nil
}

// Save writes the current text to path and marks the buffer clean.
func (b *Buffer) Save(path string) error {
	if err := os.WriteFile(path, []byte(b.text), 0644); err != nil {
		return err
	}
	b.savedText = b.text
	return nil
}

// Text returns the current text content of the buffer.
func (b *Buffer) Text() string {
	return b.text
}

// Len returns the length of the text in bytes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// SetText replaces the whole text without touching the undo history. The
// selection is clamped into the new text.
func (b *Buffer) SetText(text string) {
	if text == b.text {
		return
	}
	b.text = text
	b.sel = b.snap(b.sel)
	b.version++
}

// Dirty reports whether the buffer's text differs from the last saved/opened text.
func (b *Buffer) Dirty() bool {
	return b.text != b.savedText
}

// Version increases on every text mutation.
func (b *Buffer) Version() uint64 {
	return b.version
}

// Selection returns the current selection. A collapsed selection is the caret.
func (b *Buffer) Selection() Selection {
	return b.sel
}

// SetSelection moves the selection, clamping both ends into the text and
// onto rune boundaries.
func (b *Buffer) SetSelection(s Selection) {
	b.sel = b.snap(s)
}

// SetCursor collapses the selection to a caret at offset.
func (b *Buffer) SetCursor(offset int) {
	b.SetSelection(Caret(offset))
}

// HasSelection reports whether a non-empty range is selected.
func (b *Buffer) HasSelection() bool {
	return b.sel.Active()
}

// SelectedText returns the text covered by the selection, or "" for a caret.
func (b *Buffer) SelectedText() string {
	return b.sel.Text(b.text)
}

// ReplaceSelection replaces the selected text (or inserts at the caret) with
// text, records the edit, and leaves the caret after the inserted text.
func (b *Buffer) ReplaceSelection(text string) {
	start, end := b.sel.Ordered()
	b.ApplyEdit(start, b.text[start:end], text)
	b.sel = Caret(start + len(text))
}

// ApplyEdit records the edit on the undo stack, clears the redo stack,
// and applies the edit to the buffer text. The edit replaces the text at
// [offset, offset+len(oldText)) with newText.
func (b *Buffer) ApplyEdit(offset int, oldText, newText string) {
	b.undoStack = append(b.undoStack, editOp{
		offset:  offset,
		oldText: oldText,
		newText: newText,
	})
	b.redoStack = nil
	b.text = b.text[:offset] + newText + b.text[offset+len(oldText):]
	b.sel = b.snap(b.sel)
	b.version++
}

// Undo reverses the last edit. Returns true if an edit was undone, false if
// the undo stack is empty. The caret lands after the restored text.
func (b *Buffer) Undo() bool {
	if len(b.undoStack) == 0 {
		return false
	}
	op := b.undoStack[len(b.undoStack)-1]
	b.undoStack = b.undoStack[:len(b.undoStack)-1]
	// Reverse the edit: replace newText back with oldText.
	b.text = b.text[:op.offset] + op.oldText + b.text[op.offset+len(op.newText):]
	b.redoStack = append(b.redoStack, op)
	b.sel = Caret(op.offset + len(op.oldText))
	b.version++
	return true
}

// Redo reapplies the last undone edit. Returns true if an edit was redone,
// false if the redo stack is empty.
func (b *Buffer) Redo() bool {
	if len(b.redoStack) == 0 {
		return false
	}
	op := b.redoStack[len(b.redoStack)-1]
	b.redoStack = b.redoStack[:len(b.redoStack)-1]
	// Reapply the edit.
	b.text = b.text[:op.offset] + op.newText + b.text[op.offset+len(op.oldText):]
	b.undoStack = append(b.undoStack, op)
	b.sel = Caret(op.offset + len(op.newText))
	b.version++
	return true
}

// snap clamps s into the text and moves each end back onto a rune boundary.
func (b *Buffer) snap(s Selection) Selection {
	s = s.clamp(len(b.text))
	return Selection{
		Anchor: b.runeStart(s.Anchor),
		Cursor: b.runeStart(s.Cursor),
	}
}

// runeStart returns the start of the valid multi-byte rune spanning offset,
// or offset itself. Stray continuation bytes in invalid UTF-8 are their own
// boundaries.
func (b *Buffer) runeStart(offset int) int {
	if offset <= 0 || offset >= len(b.text) || utf8.RuneStart(b.text[offset]) {
		return offset
	}
	for start := offset - 1; start >= 0 && offset-start < utf8.UTFMax; start-- {
		if !utf8.RuneStart(b.text[start]) {
			continue
		}
		if _, size := utf8.DecodeRuneInString(b.text[start:]); size > 1 && start+size > offset {
			return start
		}
		return offset
	}
	return offset
}
