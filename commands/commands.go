// Package commands lists the editor commands a UI can bind to menus,
// shortcuts or a command palette.
package commands

import "fmt"

// Command is one entry of the command palette.
type Command struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Shortcut  string `json:"shortcut"`
	Category  string `json:"category"`
	OnExecute func() `json:"-"`
}

// Actions holds callbacks for all editor commands.
type Actions struct {
	NewFile  func()
	CloseTab func()
	SaveFile func()
	Undo     func()
	Redo     func()
	Snapshot func()
	Quit     func()
}

// AllCommands returns the full command list for the palette.
func AllCommands(a Actions) []Command {
	return []Command{
		{ID: "file.new", Label: "New Tab", Shortcut: "Ctrl+N", Category: "File", OnExecute: a.NewFile},
		{ID: "file.close", Label: "Close Tab", Shortcut: "Ctrl+W", Category: "File", OnExecute: a.CloseTab},
		{ID: "file.save", Label: "Save File", Shortcut: "Ctrl+S", Category: "File", OnExecute: a.SaveFile},
		{ID: "edit.undo", Label: "Undo", Shortcut: "Ctrl+Z", Category: "Edit", OnExecute: a.Undo},
		{ID: "edit.redo", Label: "Redo", Shortcut: "Ctrl+Y", Category: "Edit", OnExecute: a.Redo},
		{ID: "session.snapshot", Label: "Save Session Now", Category: "Session", OnExecute: a.Snapshot},
		{ID: "app.quit", Label: "Quit", Shortcut: "Ctrl+Q", Category: "App", OnExecute: a.Quit},
	}
}

// Registry looks commands up by ID.
type Registry struct {
	byID map[string]Command
	list []Command
}

// NewRegistry indexes cmds by ID. Later duplicates replace earlier ones.
func NewRegistry(cmds []Command) *Registry {
	r := &Registry{byID: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		if _, dup := r.byID[c.ID]; !dup {
			r.list = append(r.list, c)
		} else {
			for i := range r.list {
				if r.list[i].ID == c.ID {
					r.list[i] = c
				}
			}
		}
		r.byID[c.ID] = c
	}
	return r
}

// Lookup returns the command with the given ID.
func (r *Registry) Lookup(id string) (Command, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	return append([]Command(nil), r.list...)
}

// Run executes the command with the given ID.
func (r *Registry) Run(id string) error {
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("unknown command: %s", id)
	}
	if c.OnExecute == nil {
		return fmt.Errorf("command %s is not available", id)
	}
	c.OnExecute()
	return nil
}
