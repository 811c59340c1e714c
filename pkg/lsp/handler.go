// Package lsp implements a language server that formats s-expression
// documents and reports recovered syntax errors as diagnostics.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/creachadair/jrpc2"
	"github.com/vito/sexpfmt/pkg/config"
	"github.com/vito/sexpfmt/pkg/sexp"
	"github.com/vito/sexpfmt/pkg/sexp/syntax"
)

const diagnosticSource = "sexpfmt"

// NewHandler creates a JSON-RPC assigner for this language server.
//
// Documents are formatted with the options of the nearest .sexpfmt.toml
// above them, falling back to opts. The search does not leave the workspace
// folder holding the document.
func NewHandler(opts sexp.Options) jrpc2.Assigner {
	return &langHandler{
		files:   make(map[DocumentURI]*File),
		configs: make(map[string]sexp.Options),
		opts:    opts,
	}
}

type langHandler struct {
	mu    sync.Mutex
	files map[DocumentURI]*File
	opts  sexp.Options

	// configs caches resolved options by document directory
	configs map[string]sexp.Options

	// folders are the workspace folder paths
	folders []string
}

// File is an open document.
type File struct {
	LanguageID string
	Text       string
	Version    int
}

func (h *langHandler) Assign(ctx context.Context, method string) jrpc2.Handler {
	slog.DebugContext(ctx, "handle", "method", method)

	switch method {
	case "initialize":
		return h.handleInitialize
	case "initialized":
		return noop
	case "shutdown":
		return h.handleShutdown
	case "exit":
		return h.handleExit
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange
	case "textDocument/didSave":
		return h.handleTextDocumentDidSave
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose
	case "textDocument/formatting":
		return h.handleTextDocumentFormatting
	case "workspace/didChangeWorkspaceFolders":
		return h.handleWorkspaceDidChangeWorkspaceFolders
	}

	return nil
}

func noop(context.Context, *jrpc2.Request) (any, error) {
	return nil, nil
}

func (h *langHandler) file(uri DocumentURI) (File, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[uri]
	if !ok {
		return File{}, false
	}
	return *f, true
}

func (h *langHandler) openFile(uri DocumentURI, languageID string, version int, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &File{
		LanguageID: languageID,
		Text:       text,
		Version:    version,
	}
}

func (h *langHandler) updateFile(uri DocumentURI, text string, version int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[uri]
	if !ok {
		return fmt.Errorf("document not found: %v", uri)
	}
	f.Text = text
	f.Version = version
	return nil
}

func (h *langHandler) closeFile(uri DocumentURI) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, uri)
}

// optionsFor returns the layout options for the document at uri.
func (h *langHandler) optionsFor(ctx context.Context, uri DocumentURI) sexp.Options {
	path, err := fromURI(uri)
	if err != nil {
		return h.opts
	}
	dir := filepath.Dir(path)

	h.mu.Lock()
	opts, ok := h.configs[dir]
	h.mu.Unlock()
	if ok {
		return opts
	}

	opts = h.opts
	found, conf, err := config.FindWithin(dir, h.workspaceFolder(dir))
	switch {
	case err != nil:
		slog.WarnContext(ctx, "ignoring config", "dir", dir, "error", err)
	case conf != nil:
		slog.DebugContext(ctx, "using config", "path", found)
		opts = conf.Options()
	}

	h.mu.Lock()
	h.configs[dir] = opts
	h.mu.Unlock()
	return opts
}

// workspaceFolder returns the innermost workspace folder containing dir, or
// "" if there is none.
func (h *langHandler) workspaceFolder(dir string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var innermost string
	for _, folder := range h.folders {
		rel, err := filepath.Rel(folder, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(folder) > len(innermost) {
			innermost = folder
		}
	}
	return innermost
}

// forgetConfigs drops every cached config lookup.
func (h *langHandler) forgetConfigs() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.configs)
}

// publishDiagnostics pushes the current diagnostics for uri to the client.
// It is a no-op when the server was not started with push enabled.
func (h *langHandler) publishDiagnostics(ctx context.Context, uri DocumentURI, diagnostics []Diagnostic) {
	f, _ := h.file(uri)
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}

	srv := jrpc2.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	err := srv.Notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     f.Version,
		Diagnostics: diagnostics,
	})
	if errors.Is(err, jrpc2.ErrPushUnsupported) {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to publish diagnostics", "uri", uri, "error", err)
	}
}

// diagnose parses text and describes everything that went wrong.
func diagnose(text string) []Diagnostic {
	source := []byte(text)

	root, err := syntax.Parse(source)
	if err != nil {
		return []Diagnostic{{
			Range:    Range{End: positionAt(text, len(text))},
			Severity: DSError,
			Source:   diagnosticSource,
			Message:  (&sexp.ParseError{Err: err}).Error(),
		}}
	}

	var diagnostics []Diagnostic
	for _, p := range syntax.Problems(root) {
		diagnostics = append(diagnostics, Diagnostic{
			Range: Range{
				Start: positionAt(text, p.Start),
				End:   positionAt(text, p.End),
			},
			Severity: DSError,
			Source:   diagnosticSource,
			Message:  p.Message,
		})
	}

	if _, err := sexp.Build(root.Child(0), source); err != nil {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    Range{End: positionAt(text, len(text))},
			Severity: DSError,
			Source:   diagnosticSource,
			Message:  err.Error(),
		})
	}

	return diagnostics
}

// positionAt converts a byte offset into an LSP position, counting
// characters in UTF-16 code units.
func positionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}

	var pos Position
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			pos.Line++
			pos.Character = 0
		} else if r == utf8.RuneError && size == 1 {
			pos.Character++
		} else {
			pos.Character += utf16.RuneLen(r)
		}
		i += size
	}
	return pos
}

func isWindowsDrivePath(path string) bool {
	if len(path) < 4 {
		return false
	}
	return unicode.IsLetter(rune(path[0])) && path[1] == ':'
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return filepath.FromSlash(u.Path), nil
}

func toURI(path string) DocumentURI {
	if isWindowsDrivePath(path) {
		path = "/" + path
	}
	return DocumentURI((&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}).String())
}
