package lsp

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/creachadair/jrpc2"
	"github.com/vito/sexpfmt/pkg/config"
)

func (h *langHandler) handleTextDocumentDidSave(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DidSaveTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	path, err := fromURI(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}

	// a saved config may change the options of any document beneath it
	if filepath.Base(path) == config.FileName {
		slog.InfoContext(ctx, "config changed", "path", path)
		h.forgetConfigs()
	}
	return nil, nil
}
