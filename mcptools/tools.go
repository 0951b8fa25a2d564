// Package mcptools exposes the editor session to AI agents as MCP tools and
// resources.
package mcptools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TheJupiterDev/Bitpad/editor"
	"github.com/TheJupiterDev/Bitpad/web"
)

// EditorAccess provides the interface for MCP tools to interact with the editor.
// Document indexes accept web.CurrentDocument.
type EditorAccess interface {
	// Documents
	ListDocuments() []web.DocumentInfo
	ReadDocument(index int) (web.DocumentText, error)
	WriteDocument(index int, text string) error
	OpenFile(path string) (int, error)
	SaveFile(index int) error

	// Search
	FindNext(q editor.Query) (editor.Match, bool)
	ReplaceAll(q editor.Query, replacement string) int
	CountMatches(q editor.Query) int

	// Bookmarks
	AddBookmark(name string, index int) error
	ResolveBookmark(name string) (title, content string, err error)

	// Command
	RunCommand(id string) error
}

// ToolDef describes an MCP tool.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Handler     func(params json.RawMessage) (any, error)
}

// ResourceDef describes an MCP resource template.
type ResourceDef struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
	Handler     func(uri string) (string, error)
}

// Registry holds all MCP tools and resources for the editor.
type Registry struct {
	editor    EditorAccess
	tools     []ToolDef
	resources []ResourceDef
}

// NewRegistry creates a new MCP registry with all editor tools and resources.
func NewRegistry(editor EditorAccess) *Registry {
	r := &Registry{editor: editor}
	r.registerTools()
	r.registerResources()
	return r
}

// Tools returns all registered MCP tools.
func (r *Registry) Tools() []ToolDef {
	return r.tools
}

// Resources returns all registered MCP resources.
func (r *Registry) Resources() []ResourceDef {
	return r.resources
}

// HandleTool dispatches a tool call by name.
func (r *Registry) HandleTool(name string, params json.RawMessage) (any, error) {
	for _, t := range r.tools {
		if t.Name == name {
			return t.Handler(params)
		}
	}
	return nil, fmt.Errorf("unknown tool: %s", name)
}

// HandleResource dispatches a resource read by URI.
func (r *Registry) HandleResource(uri string) (string, error) {
	for _, res := range r.resources {
		if matchResourceURI(res.URI, uri) {
			return res.Handler(uri)
		}
	}
	return "", fmt.Errorf("unknown resource: %s", uri)
}

// matchResourceURI checks whether a concrete URI matches a resource URI template.
// The {param} placeholder matches the rest of the URI.
func matchResourceURI(template, uri string) bool {
	idx := strings.Index(template, "{")
	if idx < 0 {
		return template == uri
	}
	return strings.HasPrefix(uri, template[:idx]) && len(uri) > idx
}

// decodeParams unmarshals tool params into v. Missing params leave v as is.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// indexParam addresses a document; a missing index means the current one.
type indexParam struct {
	Index *int `json:"index"`
}

func (p indexParam) index() int {
	if p.Index == nil {
		return web.CurrentDocument
	}
	return *p.Index
}

type queryParams struct {
	Pattern       string `json:"pattern"`
	CaseSensitive bool   `json:"caseSensitive"`
	WholeWord     bool   `json:"wholeWord"`
}

func (p queryParams) query() (editor.Query, error) {
	if p.Pattern == "" {
		return editor.Query{}, fmt.Errorf("pattern is required")
	}
	return editor.Query{Pattern: p.Pattern, CaseSensitive: p.CaseSensitive, WholeWord: p.WholeWord}, nil
}

const queryProperties = `
				"pattern": {"type": "string", "description": "Text to search for."},
				"caseSensitive": {"type": "boolean", "description": "Match letter case exactly."},
				"wholeWord": {"type": "boolean", "description": "Only match whole words."}`

const indexProperty = `
				"index": {"type": "integer", "description": "Document index. Defaults to the current document."}`

func (r *Registry) registerTools() {
	r.tools = []ToolDef{
		r.toolListDocuments(),
		r.toolReadDocument(),
		r.toolWriteDocument(),
		r.toolOpenFile(),
		r.toolSaveFile(),
		r.toolFindNext(),
		r.toolReplaceAll(),
		r.toolCountMatches(),
		r.toolAddBookmark(),
		r.toolRunCommand(),
	}
}

func (r *Registry) registerResources() {
	r.resources = []ResourceDef{
		r.resourceDocument(),
		r.resourceBookmark(),
	}
}

// --- Tool definitions ---

func (r *Registry) toolListDocuments() ToolDef {
	return ToolDef{
		Name:        "bitpad_list_documents",
		Description: "Lists the open documents in tab order with their titles, paths and dirty state.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(params json.RawMessage) (any, error) {
			return map[string]any{"documents": r.editor.ListDocuments()}, nil
		},
	}
}

func (r *Registry) toolReadDocument() ToolDef {
	return ToolDef{
		Name:        "bitpad_read_document",
		Description: "Reads the text and selection of a document.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + indexProperty + `
			}
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p indexParam
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			doc, err := r.editor.ReadDocument(p.index())
			if err != nil {
				return nil, fmt.Errorf("failed to read document: %w", err)
			}
			return doc, nil
		},
	}
}

func (r *Registry) toolWriteDocument() ToolDef {
	return ToolDef{
		Name:        "bitpad_write_document",
		Description: "Replaces the whole text of a document as one undoable edit. Does not save to disk; use bitpad_save_file.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + indexProperty + `,
				"text": {"type": "string", "description": "The new text content."}
			},
			"required": ["text"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p struct {
				indexParam
				Text *string `json:"text"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if p.Text == nil {
				return nil, fmt.Errorf("text is required")
			}
			if err := r.editor.WriteDocument(p.index(), *p.Text); err != nil {
				return nil, fmt.Errorf("failed to write document: %w", err)
			}
			return map[string]any{"status": "written", "length": len(*p.Text)}, nil
		},
	}
}

func (r *Registry) toolOpenFile() ToolDef {
	return ToolDef{
		Name:        "bitpad_open_file",
		Description: "Opens a file in a new tab. If the file is already open, its tab becomes current.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Path to the file to open."}
			},
			"required": ["path"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p struct {
				Path string `json:"path"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if p.Path == "" {
				return nil, fmt.Errorf("path is required")
			}
			idx, err := r.editor.OpenFile(p.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to open file: %w", err)
			}
			return map[string]any{"index": idx, "status": "opened"}, nil
		},
	}
}

func (r *Registry) toolSaveFile() ToolDef {
	return ToolDef{
		Name:        "bitpad_save_file",
		Description: "Saves a document to the file it was opened from or last saved to.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + indexProperty + `
			}
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p indexParam
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if err := r.editor.SaveFile(p.index()); err != nil {
				return nil, fmt.Errorf("failed to save: %w", err)
			}
			return map[string]any{"status": "saved"}, nil
		},
	}
}

func (r *Registry) toolFindNext() ToolDef {
	return ToolDef{
		Name:        "bitpad_find_next",
		Description: "Selects the next match in the current document after the selection, wrapping once to the start.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + queryProperties + `
			},
			"required": ["pattern"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p queryParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			q, err := p.query()
			if err != nil {
				return nil, err
			}
			m, found := r.editor.FindNext(q)
			return map[string]any{"found": found, "start": m.Start, "end": m.End}, nil
		},
	}
}

func (r *Registry) toolReplaceAll() ToolDef {
	return ToolDef{
		Name:        "bitpad_replace_all",
		Description: "Replaces every match in the current document and returns the number of replacements.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + queryProperties + `,
				"replacement": {"type": "string", "description": "Replacement text."}
			},
			"required": ["pattern", "replacement"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p struct {
				queryParams
				Replacement string `json:"replacement"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			q, err := p.query()
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": r.editor.ReplaceAll(q, p.Replacement)}, nil
		},
	}
}

func (r *Registry) toolCountMatches() ToolDef {
	return ToolDef{
		Name:        "bitpad_count_matches",
		Description: "Counts the matches in the current document without moving the selection.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + queryProperties + `
			},
			"required": ["pattern"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p queryParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			q, err := p.query()
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": r.editor.CountMatches(q)}, nil
		},
	}
}

func (r *Registry) toolAddBookmark() ToolDef {
	return ToolDef{
		Name:        "bitpad_add_bookmark",
		Description: "Bookmarks a copy of a document under a name. An existing bookmark with the same name is replaced.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + indexProperty + `,
				"name": {"type": "string", "description": "Bookmark name."}
			},
			"required": ["name"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p struct {
				indexParam
				Name string `json:"name"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if err := r.editor.AddBookmark(p.Name, p.index()); err != nil {
				return nil, fmt.Errorf("failed to add bookmark: %w", err)
			}
			return map[string]any{"name": p.Name, "status": "bookmarked"}, nil
		},
	}
}

func (r *Registry) toolRunCommand() ToolDef {
	return ToolDef{
		Name:        "bitpad_run_command",
		Description: "Runs an editor command by ID, such as file.new, file.save or session.snapshot.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Command ID."}
			},
			"required": ["id"]
		}`),
		Handler: func(params json.RawMessage) (any, error) {
			var p struct {
				ID string `json:"id"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if err := r.editor.RunCommand(p.ID); err != nil {
				return nil, err
			}
			return map[string]any{"id": p.ID, "status": "ok"}, nil
		},
	}
}

// --- Resource definitions ---

func (r *Registry) resourceDocument() ResourceDef {
	const prefix = "bitpad://documents/"
	return ResourceDef{
		URI:         prefix + "{index}",
		Name:        "Document",
		Description: "The text of the open document at the given tab index.",
		MimeType:    "text/plain",
		Handler: func(uri string) (string, error) {
			idx, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
			if err != nil {
				return "", fmt.Errorf("bad document index in %s", uri)
			}
			doc, err := r.editor.ReadDocument(idx)
			if err != nil {
				return "", err
			}
			return doc.Text, nil
		},
	}
}

func (r *Registry) resourceBookmark() ResourceDef {
	const prefix = "bitpad://bookmarks/"
	return ResourceDef{
		URI:         prefix + "{name}",
		Name:        "Bookmark",
		Description: "A bookmark's content, read live from its file when that still exists.",
		MimeType:    "text/plain",
		Handler: func(uri string) (string, error) {
			_, content, err := r.editor.ResolveBookmark(strings.TrimPrefix(uri, prefix))
			if err != nil {
				return "", err
			}
			return content, nil
		},
	}
}
