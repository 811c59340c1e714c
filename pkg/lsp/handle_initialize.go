package lsp

import (
	"context"
	"log/slog"

	"github.com/creachadair/jrpc2"
)

func (h *langHandler) handleInitialize(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params InitializeParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	folders := params.WorkspaceFolders
	if len(folders) == 0 && params.RootURI != "" {
		folders = []WorkspaceFolder{{URI: params.RootURI}}
	}

	h.mu.Lock()
	for _, folder := range folders {
		if path, err := fromURI(folder.URI); err == nil {
			h.folders = append(h.folders, path)
		}
	}
	h.mu.Unlock()

	slog.InfoContext(ctx, "initialize", "root", params.RootURI, "pid", params.ProcessID)

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:           TDSKFull,
			DocumentFormattingProvider: true,
			Workspace: &WorkspaceCapabilities{
				WorkspaceFolders: &WorkspaceFoldersServerCapabilities{
					Supported:           true,
					ChangeNotifications: true,
				},
			},
		},
		ServerInfo: &ServerInfo{
			Name: "sexpfmt",
		},
	}, nil
}
