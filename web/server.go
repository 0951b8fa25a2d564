// Package web exposes the editor session to an external UI over a WebSocket
// carrying JSON-RPC style messages.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"github.com/TheJupiterDev/Bitpad/commands"
	"github.com/TheJupiterDev/Bitpad/editor"
	"github.com/TheJupiterDev/Bitpad/persist"
)

// CurrentDocument addresses whichever document is current when the call is
// served.
const CurrentDocument = -1

// DocumentInfo describes one open document for the UI's tab bar.
type DocumentInfo struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path,omitempty"`
	Dirty   bool   `json:"dirty"`
	Current bool   `json:"current"`
}

// DocumentText is a document's content with its selection.
type DocumentText struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Anchor int    `json:"anchor"`
	Cursor int    `json:"cursor"`
}

// ReplaceResult reports a replace and the match selected after it.
type ReplaceResult struct {
	Replaced bool `json:"replaced"`
	Found    bool `json:"found"`
	Start    int  `json:"start"`
	End      int  `json:"end"`
}

// EditorState provides read/write access to the editor session. Every
// method is expected to be safe for concurrent use. Methods taking a
// document index accept CurrentDocument, resolved under the same lock as the
// operation itself.
type EditorState interface {
	ListDocuments() []DocumentInfo
	CurrentIndex() int
	NewDocument(title, content string) int
	InsertDocument(index int, title, content string) (int, error)
	CloseDocument(index int) error
	RenameDocument(index int, title string) error
	SetCurrent(index int) error
	ReadDocument(index int) (DocumentText, error)
	WriteDocument(index int, text string) error
	SetSelection(index int, sel editor.Selection) error
	OpenFile(path string) (int, error)
	SaveFile(index int) error
	SaveFileAs(index int, path string) error
	Undo() bool
	Redo() bool

	FindNext(q editor.Query) (editor.Match, bool)
	// Replace replaces the selected match and, if it did, finds the next one.
	Replace(q editor.Query, replacement string) ReplaceResult
	ReplaceAll(q editor.Query, replacement string) int
	CountMatches(q editor.Query) int

	ListBookmarks() []persist.Bookmark
	AddBookmark(name string, index int) error
	RemoveBookmark(name string) bool
	ResolveBookmark(name string) (title, content string, err error)
	SearchBookmarks(query string) []persist.Bookmark

	ListCommands() []commands.Command
	RunCommand(id string) error
}

// Server provides the HTTP + WebSocket endpoint for UI clients.
type Server struct {
	state    EditorState
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  []*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeFailed         = -32000
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("bitpad.web")
}

// NewServer creates a web server backed by the given editor state.
func NewServer(state EditorState) *Server {
	return &Server{
		state: state,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/healthz":
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger().Warningf("websocket upgrade: %s", err)
		return
	}
	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()

	defer func() {
		conn.Close()
		s.mu.Lock()
		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			logger().Debugf("dropping malformed message: %s", err)
			continue
		}
		resp, changed := s.handleRPC(req)
		data, _ := json.Marshal(resp)
		client.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()

		if changed {
			s.Broadcast("documentsChanged", s.state.ListDocuments())
		}
	}
}

// handleRPC dispatches req and reports whether the session's document list
// may have changed.
func (s *Server) handleRPC(req rpcRequest) (rpcResponse, bool) {
	switch req.Method {
	case "listDocuments":
		return ok(req, s.state.ListDocuments()), false
	case "newDocument":
		return s.rpcNewDocument(req), true
	case "insertDocument":
		return s.rpcInsertDocument(req), true
	case "closeDocument":
		return s.rpcCloseDocument(req), true
	case "renameDocument":
		return s.rpcRenameDocument(req), true
	case "setCurrent":
		return s.rpcSetCurrent(req), true
	case "readDocument":
		return s.rpcReadDocument(req), false
	case "writeDocument":
		return s.rpcWriteDocument(req), true
	case "setSelection":
		return s.rpcSetSelection(req), false
	case "openFile":
		return s.rpcOpenFile(req), true
	case "saveFile":
		return s.rpcSaveFile(req), true
	case "saveFileAs":
		return s.rpcSaveFileAs(req), true
	case "undo":
		return ok(req, map[string]bool{"changed": s.state.Undo()}), true
	case "redo":
		return ok(req, map[string]bool{"changed": s.state.Redo()}), true
	case "findNext":
		return s.rpcFindNext(req), false
	case "replace":
		return s.rpcReplace(req), true
	case "replaceAll":
		return s.rpcReplaceAll(req), true
	case "countMatches":
		return s.rpcCountMatches(req), false
	case "listBookmarks":
		return ok(req, map[string]any{"bookmarks": s.state.ListBookmarks()}), false
	case "addBookmark":
		return s.rpcAddBookmark(req), false
	case "removeBookmark":
		return s.rpcRemoveBookmark(req), false
	case "resolveBookmark":
		return s.rpcResolveBookmark(req), false
	case "searchBookmarks":
		return s.rpcSearchBookmarks(req), false
	case "listCommands":
		return ok(req, map[string]any{"commands": s.state.ListCommands()}), false
	case "runCommand":
		return s.rpcRunCommand(req), true
	default:
		return rpcResponse{
			ID:    req.ID,
			Error: &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}, false
	}
}

func ok(req rpcRequest, result any) rpcResponse {
	return rpcResponse{ID: req.ID, Result: result}
}

func fail(req rpcRequest, code int, err error) rpcResponse {
	return rpcResponse{ID: req.ID, Error: &rpcError{Code: code, Message: err.Error()}}
}

// decode unmarshals the request params into v. Absent params leave v as is.
func decode(req rpcRequest, v any) error {
	if len(req.Params) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params, v)
}

// indexParams addresses a document; a missing index means the current one.
type indexParams struct {
	Index *int `json:"index"`
}

func (p indexParams) index() int {
	if p.Index == nil {
		return CurrentDocument
	}
	return *p.Index
}

type searchParams struct {
	Pattern       string `json:"pattern"`
	CaseSensitive bool   `json:"caseSensitive"`
	WholeWord     bool   `json:"wholeWord"`
	Replacement   string `json:"replacement"`
}

func (p searchParams) query() editor.Query {
	return editor.Query{Pattern: p.Pattern, CaseSensitive: p.CaseSensitive, WholeWord: p.WholeWord}
}

func (s *Server) rpcNewDocument(req rpcRequest) rpcResponse {
	p := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}{Title: editor.DefaultTitle}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, map[string]int{"index": s.state.NewDocument(p.Title, p.Content)})
}

func (s *Server) rpcInsertDocument(req rpcRequest) rpcResponse {
	p := struct {
		Index   int    `json:"index"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}{Title: editor.DefaultTitle}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	idx, err := s.state.InsertDocument(p.Index, p.Title, p.Content)
	if err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]int{"index": idx})
}

func (s *Server) rpcCloseDocument(req rpcRequest) rpcResponse {
	var p indexParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.CloseDocument(p.index()); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]int{"current": s.state.CurrentIndex()})
}

func (s *Server) rpcRenameDocument(req rpcRequest) rpcResponse {
	var p struct {
		indexParams
		Title string `json:"title"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.RenameDocument(p.index(), p.Title); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "ok"})
}

func (s *Server) rpcSetCurrent(req rpcRequest) rpcResponse {
	var p struct {
		Index int `json:"index"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.SetCurrent(p.Index); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]int{"current": p.Index})
}

func (s *Server) rpcReadDocument(req rpcRequest) rpcResponse {
	var p indexParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	doc, err := s.state.ReadDocument(p.index())
	if err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, doc)
}

func (s *Server) rpcWriteDocument(req rpcRequest) rpcResponse {
	var p struct {
		indexParams
		Text string `json:"text"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.WriteDocument(p.index(), p.Text); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "ok"})
}

func (s *Server) rpcSetSelection(req rpcRequest) rpcResponse {
	var p struct {
		indexParams
		Anchor int `json:"anchor"`
		Cursor int `json:"cursor"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	sel := editor.Selection{Anchor: p.Anchor, Cursor: p.Cursor}
	if err := s.state.SetSelection(p.index(), sel); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "ok"})
}

func (s *Server) rpcOpenFile(req rpcRequest) rpcResponse {
	var p struct {
		Path string `json:"path"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	idx, err := s.state.OpenFile(p.Path)
	if err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]int{"index": idx})
}

func (s *Server) rpcSaveFile(req rpcRequest) rpcResponse {
	var p indexParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.SaveFile(p.index()); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "saved"})
}

func (s *Server) rpcSaveFileAs(req rpcRequest) rpcResponse {
	var p struct {
		indexParams
		Path string `json:"path"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.SaveFileAs(p.index(), p.Path); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "saved"})
}

func (s *Server) rpcFindNext(req rpcRequest) rpcResponse {
	var p searchParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	m, found := s.state.FindNext(p.query())
	return ok(req, map[string]any{"found": found, "start": m.Start, "end": m.End})
}

func (s *Server) rpcReplace(req rpcRequest) rpcResponse {
	var p searchParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, s.state.Replace(p.query(), p.Replacement))
}

func (s *Server) rpcReplaceAll(req rpcRequest) rpcResponse {
	var p searchParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, map[string]int{"count": s.state.ReplaceAll(p.query(), p.Replacement)})
}

func (s *Server) rpcCountMatches(req rpcRequest) rpcResponse {
	var p searchParams
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, map[string]int{"count": s.state.CountMatches(p.query())})
}

func (s *Server) rpcAddBookmark(req rpcRequest) rpcResponse {
	var p struct {
		indexParams
		Name string `json:"name"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.AddBookmark(p.Name, p.index()); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "ok"})
}

func (s *Server) rpcRemoveBookmark(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, map[string]bool{"removed": s.state.RemoveBookmark(p.Name)})
}

func (s *Server) rpcResolveBookmark(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	title, content, err := s.state.ResolveBookmark(p.Name)
	if err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"title": title, "content": content})
}

func (s *Server) rpcSearchBookmarks(req rpcRequest) rpcResponse {
	var p struct {
		Query string `json:"query"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	return ok(req, map[string]any{"bookmarks": s.state.SearchBookmarks(p.Query)})
}

func (s *Server) rpcRunCommand(req rpcRequest) rpcResponse {
	var p struct {
		ID string `json:"id"`
	}
	if err := decode(req, &p); err != nil {
		return fail(req, codeInvalidParams, err)
	}
	if err := s.state.RunCommand(p.ID); err != nil {
		return fail(req, codeFailed, err)
	}
	return ok(req, map[string]string{"status": "ok"})
}

// Broadcast sends a notification to all connected WebSocket clients.
func (s *Server) Broadcast(method string, params any) {
	msg, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	clients := append([]*wsClient(nil), s.clients...)
	s.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
		c.mu.Unlock()
	}
}
