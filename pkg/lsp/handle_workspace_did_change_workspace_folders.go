package lsp

import (
	"context"
	"log/slog"
	"slices"

	"github.com/creachadair/jrpc2"
)

func (h *langHandler) handleWorkspaceDidChangeWorkspaceFolders(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DidChangeWorkspaceFoldersParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	h.mu.Lock()
	for _, folder := range params.Event.Removed {
		if path, err := fromURI(folder.URI); err == nil {
			h.folders = slices.DeleteFunc(h.folders, func(f string) bool { return f == path })
		}
	}
	for _, folder := range params.Event.Added {
		if path, err := fromURI(folder.URI); err == nil && !slices.Contains(h.folders, path) {
			h.folders = append(h.folders, path)
		}
	}
	folders := slices.Clone(h.folders)
	h.mu.Unlock()

	slog.InfoContext(ctx, "workspace folders changed", "folders", folders)

	// folders may bring their own config files with them
	h.forgetConfigs()
	return nil, nil
}
