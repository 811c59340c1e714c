package lsp

import (
	"context"
	"log/slog"

	"github.com/creachadair/jrpc2"
	"github.com/vito/sexpfmt/pkg/sexp"
	"github.com/vito/sexpfmt/pkg/sexpfmt"
)

func (h *langHandler) handleTextDocumentFormatting(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DocumentFormattingParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	f, ok := h.file(params.TextDocument.URI)
	if !ok {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "document not found: %v", params.TextDocument.URI)
	}

	expr, problems, err := sexpfmt.ParseRecovered([]byte(f.Text))
	if err != nil {
		// The error is already shown as a diagnostic
		slog.DebugContext(ctx, "cannot format document", "uri", params.TextDocument.URI, "error", err)
		return []TextEdit{}, nil
	}
	if len(problems) > 0 {
		// Recovered documents are never rewritten
		slog.DebugContext(ctx, "not formatting document with syntax errors", "uri", params.TextDocument.URI, "problems", len(problems))
		return []TextEdit{}, nil
	}
	formatted := sexp.Format(expr, h.optionsFor(ctx, params.TextDocument.URI)) + "\n"

	if formatted == f.Text {
		return []TextEdit{}, nil
	}

	// Return a single edit that replaces the entire document
	return []TextEdit{
		{
			Range: Range{
				Start: Position{Line: 0, Character: 0},
				End:   positionAt(f.Text, len(f.Text)),
			},
			NewText: formatted,
		},
	}, nil
}
