// Package server serves s-expression formatting over HTTP.
//
//	POST /format?width=80&indent=2   body: source   -> formatted text
//	GET  /healthz                                   -> ok
//
// Posted documents are untrusted: their size, nesting depth and formatted
// size are all bounded.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vito/sexpfmt/pkg/sexp"
	"github.com/vito/sexpfmt/pkg/sexp/syntax"
)

const (
	// MaxBodySize bounds the size of a source document accepted by /format.
	MaxBodySize = 1 << 20

	// MaxDepth bounds how deeply lists in a posted document may nest. Layout
	// work and line padding both grow with depth.
	MaxDepth = 128

	// MaxOutputSize bounds the size of a formatted response.
	MaxOutputSize = 16 << 20
)

// Server formats documents posted to it.
type Server struct {
	opts   sexp.Options
	logger *slog.Logger

	maxDepth  int
	maxOutput int
}

// New returns a server using opts unless a request overrides them.
func New(opts sexp.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:      opts,
		logger:    logger,
		maxDepth:  MaxDepth,
		maxOutput: MaxOutputSize,
	}
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Post("/format", s.handleFormat)

	return r
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expr, err := sexp.Parse(syntax.Parser{MaxDepth: s.maxDepth}, source)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	formatted, err := sexp.FormatLimit(expr, opts, s.maxOutput)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, formatted)
}

// requestOptions applies the width and indent query parameters to the
// server's options.
func (s *Server) requestOptions(r *http.Request) (sexp.Options, error) {
	opts := s.opts
	query := r.URL.Query()

	if v := query.Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New("width must be an integer")
		}
		opts.MaxWidth = width
	}

	if v := query.Get("indent"); v != "" {
		indent, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New("indent must be an integer")
		}
		opts.IndentSize = indent
	}

	return opts, opts.Validate()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
