package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/stretchr/testify/require"
	"github.com/vito/sexpfmt/pkg/config"
	"github.com/vito/sexpfmt/pkg/sexp"
)

type session struct {
	client      *jrpc2.Client
	diagnostics chan PublishDiagnosticsParams

	// dir is a scratch repository holding the document at uri
	dir string
	uri DocumentURI
}

func newSession(t *testing.T) *session {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	return startSession(t, dir, dir, InitializeParams{RootURI: toURI(dir)})
}

// startSession initializes a server with params; documents live in docDir
// and configs are written to dir.
func startSession(t *testing.T, dir, docDir string, params InitializeParams) *session {
	t.Helper()

	s := &session{
		diagnostics: make(chan PublishDiagnosticsParams, 16),
		dir:         dir,
		uri:         toURI(filepath.Join(docDir, "test.sexp")),
	}
	loc := server.NewLocal(NewHandler(sexp.DefaultOptions()), &server.LocalOptions{
		Server: &jrpc2.ServerOptions{AllowPush: true},
		Client: &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				if req.Method() != "textDocument/publishDiagnostics" {
					return
				}
				var params PublishDiagnosticsParams
				if err := req.UnmarshalParams(&params); err == nil {
					s.diagnostics <- params
				}
			},
		},
	})
	t.Cleanup(func() { _ = loc.Close() })
	s.client = loc.Client

	var result InitializeResult
	require.NoError(t, s.client.CallResult(context.Background(), "initialize", params, &result))
	require.True(t, result.Capabilities.DocumentFormattingProvider)
	require.Equal(t, TDSKFull, result.Capabilities.TextDocumentSync)

	return s
}

func (s *session) open(t *testing.T, text string) PublishDiagnosticsParams {
	t.Helper()
	require.NoError(t, s.client.Notify(context.Background(), "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        s.uri,
			LanguageID: "sexp",
			Version:    1,
			Text:       text,
		},
	}))
	return s.nextDiagnostics(t)
}

func (s *session) nextDiagnostics(t *testing.T) PublishDiagnosticsParams {
	t.Helper()
	select {
	case params := <-s.diagnostics:
		return params
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
		return PublishDiagnosticsParams{}
	}
}

func (s *session) format(t *testing.T) []TextEdit {
	t.Helper()
	var edits []TextEdit
	require.NoError(t, s.client.CallResult(context.Background(), "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: s.uri},
	}, &edits))
	return edits
}

func TestFormatting(t *testing.T) {
	s := newSession(t)

	diags := s.open(t, "(a\n (b c))")
	require.Equal(t, s.uri, diags.URI)
	require.Empty(t, diags.Diagnostics)

	require.Equal(t, []TextEdit{{
		Range: Range{
			Start: Position{Line: 0, Character: 0},
			End:   Position{Line: 1, Character: 7},
		},
		NewText: "(a (b c))\n",
	}}, s.format(t))
}

func TestFormattingUnchanged(t *testing.T) {
	s := newSession(t)
	s.open(t, "(a (b c))\n")
	require.Empty(t, s.format(t))
}

func TestFormattingUnparseable(t *testing.T) {
	s := newSession(t)

	diags := s.open(t, "(a (")
	require.Len(t, diags.Diagnostics, 1)
	require.Contains(t, diags.Diagnostics[0].Message, "could not parse anything")

	require.Empty(t, s.format(t))
}

func TestFormattingUnknownDocument(t *testing.T) {
	s := newSession(t)

	var edits []TextEdit
	err := s.client.CallResult(context.Background(), "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///nope.sexp"},
	}, &edits)
	require.Error(t, err)
	require.Equal(t, jrpc2.InvalidParams, jrpc2.ErrorCode(err))
}

func TestDidChangeDiagnostics(t *testing.T) {
	s := newSession(t)
	s.open(t, "(a b)")

	require.NoError(t, s.client.Notify(context.Background(), "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument: VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: TextDocumentIdentifier{URI: s.uri},
			Version:                2,
		},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "(a b"}},
	}))

	diags := s.nextDiagnostics(t)
	require.Equal(t, 2, diags.Version)
	require.Equal(t, []Diagnostic{{
		Range: Range{
			Start: Position{Line: 0, Character: 4},
			End:   Position{Line: 0, Character: 4},
		},
		Severity: DSError,
		Source:   diagnosticSource,
		Message:  `missing ")"`,
	}}, diags.Diagnostics)

	// the broken document is left alone rather than rewritten with the
	// recovery marker
	require.Empty(t, s.format(t))
}

func TestFormattingSkipsRecoveredDocuments(t *testing.T) {
	for _, text := range []string{"(a b", "(a))\n", "x y\n"} {
		s := newSession(t)
		diags := s.open(t, text)
		require.NotEmpty(t, diags.Diagnostics, text)
		require.Empty(t, s.format(t), text)
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	s := newSession(t)
	s.open(t, "(a))")

	require.NoError(t, s.client.Notify(context.Background(), "textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: s.uri},
	}))

	diags := s.nextDiagnostics(t)
	require.NotNil(t, diags.Diagnostics)
	require.Empty(t, diags.Diagnostics)
}

func (s *session) writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(s.dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const square = "(define (square x) (* x x))"

const narrowSquare = "(define\n  (square\n    x)\n  (*\n    x\n    x))\n"

func TestFormattingUsesProjectConfig(t *testing.T) {
	s := newSession(t)
	s.writeConfig(t, "max_width = 10\nindent_size = 2\n")
	s.open(t, square)

	edits := s.format(t)
	require.Len(t, edits, 1)
	require.Equal(t, narrowSquare, edits[0].NewText)
}

func TestDidSaveConfigReloads(t *testing.T) {
	s := newSession(t)
	path := s.writeConfig(t, "max_width = 10\nindent_size = 2\n")
	s.open(t, square)
	require.Equal(t, narrowSquare, s.format(t)[0].NewText)

	s.writeConfig(t, "max_width = 150\n")

	// still cached until the client says the config was saved
	require.Equal(t, narrowSquare, s.format(t)[0].NewText)

	require.NoError(t, s.client.Notify(context.Background(), "textDocument/didSave", DidSaveTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: toURI(path)},
	}))

	require.Eventually(t, func() bool {
		edits := s.format(t)
		return len(edits) == 1 && edits[0].NewText == square+"\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkspaceFoldersChangeReloads(t *testing.T) {
	s := newSession(t)
	s.writeConfig(t, "max_width = 10\nindent_size = 2\n")
	s.open(t, square)
	require.Equal(t, narrowSquare, s.format(t)[0].NewText)

	require.NoError(t, os.Remove(filepath.Join(s.dir, config.FileName)))
	require.NoError(t, s.client.Notify(context.Background(), "workspace/didChangeWorkspaceFolders", DidChangeWorkspaceFoldersParams{
		Event: WorkspaceFoldersChangeEvent{
			Added: []WorkspaceFolder{{URI: toURI(s.dir), Name: "scratch"}},
		},
	}))

	require.Eventually(t, func() bool {
		edits := s.format(t)
		return len(edits) == 1 && edits[0].NewText == square+"\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestConfigStaysInWorkspaceFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	project := filepath.Join(dir, "project")
	require.NoError(t, os.Mkdir(project, 0o755))

	s := startSession(t, dir, project, InitializeParams{
		RootURI:          toURI(dir),
		WorkspaceFolders: []WorkspaceFolder{{URI: toURI(project), Name: "project"}},
	})
	s.writeConfig(t, "max_width = 10\nindent_size = 2\n")
	s.open(t, square)

	// the config sits above the only workspace folder
	edits := s.format(t)
	require.Len(t, edits, 1)
	require.Equal(t, square+"\n", edits[0].NewText)

	require.NoError(t, s.client.Notify(context.Background(), "workspace/didChangeWorkspaceFolders", DidChangeWorkspaceFoldersParams{
		Event: WorkspaceFoldersChangeEvent{
			Removed: []WorkspaceFolder{{URI: toURI(project), Name: "project"}},
		},
	}))

	require.Eventually(t, func() bool {
		edits := s.format(t)
		return len(edits) == 1 && edits[0].NewText == narrowSquare
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkspaceFolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	inner := filepath.Join(root, "inner")
	h := &langHandler{folders: []string{root, inner}}

	require.Equal(t, inner, h.workspaceFolder(filepath.Join(inner, "src")))
	require.Equal(t, root, h.workspaceFolder(root))
	require.Equal(t, root, h.workspaceFolder(filepath.Join(root, "..inner")))
	require.Empty(t, h.workspaceFolder(filepath.Dir(root)))
	require.Empty(t, h.workspaceFolder(filepath.Join(filepath.Dir(root), "other")))
}

func TestURIs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a b.sexp")

	got, err := fromURI(toURI(path))
	require.NoError(t, err)
	require.Equal(t, path, got)

	_, err = fromURI("https://example.com/a.sexp")
	require.Error(t, err)
}

func TestUnknownMethod(t *testing.T) {
	s := newSession(t)

	_, err := s.client.Call(context.Background(), "textDocument/hover", nil)
	require.Error(t, err)
	require.Equal(t, jrpc2.MethodNotFound, jrpc2.ErrorCode(err))
}

func TestDiagnose(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		require.Empty(t, diagnose("(a (b c))"))
	})

	t.Run("stray close", func(t *testing.T) {
		diags := diagnose("(a))")
		require.Len(t, diags, 1)
		require.Equal(t, `unexpected ")"`, diags[0].Message)
		require.Equal(t, Range{
			Start: Position{Line: 0, Character: 3},
			End:   Position{Line: 0, Character: 4},
		}, diags[0].Range)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		diags := diagnose("(a \xff)")
		require.Len(t, diags, 1)
		require.Contains(t, diags[0].Message, "not valid UTF-8")
	})

	t.Run("parse failure", func(t *testing.T) {
		diags := diagnose("(a\n(")
		require.Len(t, diags, 1)
		require.Equal(t, Position{Line: 1, Character: 1}, diags[0].Range.End)
	})
}

func TestPositionAt(t *testing.T) {
	text := "a\nbé😀c"

	require.Equal(t, Position{Line: 0, Character: 0}, positionAt(text, 0))
	require.Equal(t, Position{Line: 1, Character: 0}, positionAt(text, 2))
	require.Equal(t, Position{Line: 1, Character: 2}, positionAt(text, 5))
	require.Equal(t, Position{Line: 1, Character: 4}, positionAt(text, 9))
	require.Equal(t, Position{Line: 1, Character: 5}, positionAt(text, len(text)))
	require.Equal(t, Position{Line: 1, Character: 5}, positionAt(text, len(text)+10))
}
