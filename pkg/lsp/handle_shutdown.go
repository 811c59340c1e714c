package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *langHandler) handleShutdown(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	clear(h.files)
	h.mu.Unlock()
	return nil, nil
}

func (h *langHandler) handleExit(ctx context.Context, req *jrpc2.Request) (any, error) {
	if srv := jrpc2.ServerFromContext(ctx); srv != nil {
		// do not block the handler on shutdown
		go srv.Stop()
	}
	return nil, nil
}
