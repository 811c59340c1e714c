package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/vito/sexpfmt/pkg/ioctx"
	"github.com/vito/sexpfmt/pkg/lsp"
	"github.com/vito/sexpfmt/pkg/sexp"
)

// runLSP serves the language server protocol over in and out until the
// client exits or ctx is canceled.
func runLSP(ctx context.Context, cfg Config, opts sexp.Options, in io.Reader, out io.Writer) error {
	logDest := ioctx.StderrFromContext(ctx)
	if cfg.LSPLogFile != "" {
		logFile, err := os.Create(cfg.LSPLogFile)
		if err != nil {
			return fmt.Errorf("open lsp log: %w", err)
		}
		defer logFile.Close() //nolint:errcheck
		logDest = logFile
	}

	// stdout carries the protocol, so logs must never go there
	logger := setupLogging(logDest, cfg.Debug)
	logger.InfoContext(ctx, "starting LSP server", "width", opts.MaxWidth, "indent", opts.IndentSize)

	srv := jrpc2.NewServer(lsp.NewHandler(opts), &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    func(text string) { logger.Debug(text) },
	})
	srv.Start(channel.LSP(in, stdio{in, out}))

	go func() {
		<-ctx.Done()
		srv.Stop()
	}()

	logger.InfoContext(ctx, "LSP server closed", "error", srv.Wait())
	return nil
}

// stdio closes both halves of the connection when the server stops.
type stdio struct {
	io.Reader
	io.Writer
}

func (s stdio) Close() error {
	if c, ok := s.Reader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	if c, ok := s.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
