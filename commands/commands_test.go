package commands

import "testing"

func TestAllCommandsUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range AllCommands(Actions{}) {
		if c.ID == "" || c.Label == "" {
			t.Errorf("command %+v missing ID or label", c)
		}
		if seen[c.ID] {
			t.Errorf("duplicate command ID %q", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestRegistryRun(t *testing.T) {
	var newCalls, undoCalls int
	r := NewRegistry(AllCommands(Actions{
		NewFile: func() { newCalls++ },
		Undo:    func() { undoCalls++ },
	}))

	if err := r.Run("file.new"); err != nil {
		t.Fatalf("Run(file.new): %v", err)
	}
	if err := r.Run("edit.undo"); err != nil {
		t.Fatalf("Run(edit.undo): %v", err)
	}
	if newCalls != 1 || undoCalls != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", newCalls, undoCalls)
	}

	if err := r.Run("file.save"); err == nil {
		t.Error("Run of a command without callback should fail")
	}
	if err := r.Run("nope"); err == nil {
		t.Error("Run of unknown command should fail")
	}
}

func TestRegistryDuplicateReplaces(t *testing.T) {
	var which string
	r := NewRegistry([]Command{
		{ID: "x", Label: "first", OnExecute: func() { which = "first" }},
		{ID: "y", Label: "other"},
		{ID: "x", Label: "second", OnExecute: func() { which = "second" }},
	})

	cmds := r.Commands()
	if len(cmds) != 2 {
		t.Fatalf("Commands = %d, want 2", len(cmds))
	}
	if cmds[0].Label != "second" {
		t.Errorf("Commands[0].Label = %q, want %q", cmds[0].Label, "second")
	}
	if err := r.Run("x"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if which != "second" {
		t.Errorf("ran %q, want %q", which, "second")
	}
	if c, ok := r.Lookup("y"); !ok || c.Label != "other" {
		t.Errorf("Lookup(y) = (%+v, %v)", c, ok)
	}
}
