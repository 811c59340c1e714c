// Package sexpfmt formats s-expression source text and files using the
// default parser.
package sexpfmt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vito/sexpfmt/pkg/ioctx"
	"github.com/vito/sexpfmt/pkg/sexp"
	"github.com/vito/sexpfmt/pkg/sexp/syntax"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the file suffixes picked up when formatting a
// directory.
var DefaultExtensions = []string{".sexp", ".scm"}

// Parse parses source with the default parser.
func Parse(source []byte) (sexp.Expression, error) {
	return sexp.Parse(syntax.Parser{}, source)
}

// ParseRecovered parses source like Parse, and also returns the syntax
// errors the parser recovered from. The tree then holds ERROR and MISSING
// nodes in their place.
func ParseRecovered(source []byte) (sexp.Expression, []syntax.Problem, error) {
	root, err := syntax.Parse(source)
	if err != nil {
		return nil, nil, &sexp.ParseError{Err: err}
	}
	expr, err := sexp.Build(root.Child(0), source)
	if err != nil {
		return nil, nil, err
	}
	return expr, syntax.Problems(root), nil
}

// Format parses and formats source.
func Format(source []byte, opts sexp.Options) (string, error) {
	return sexp.ParseAndFormat(syntax.Parser{}, source, opts)
}

// FormatFile formats the file at path. The result ends in a single newline;
// changed reports whether it differs from what is on disk.
func FormatFile(path string, opts sexp.Options) (formatted string, changed bool, err error) {
	res, err := formatFile(path, opts)
	if err != nil {
		return "", false, err
	}
	return res.formatted, res.changed, nil
}

type fileResult struct {
	formatted string
	changed   bool
	source    []byte
	problems  []syntax.Problem
}

func formatFile(path string, opts sexp.Options) (fileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}

	expr, problems, err := ParseRecovered(source)
	if err != nil {
		return fileResult{}, err
	}
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("built tree", "path", path, "size", expr.Size(), "tree", sexp.Dump(expr))
	}

	formatted := sexp.Format(expr, opts) + "\n"
	return fileResult{
		formatted: formatted,
		changed:   formatted != string(source),
		source:    source,
		problems:  problems,
	}, nil
}

// SyntaxError is returned by Batch.Run in Write mode for a file that only
// parsed by recovering from syntax errors. Such files are not rewritten.
type SyntaxError struct {
	Problems []syntax.Problem

	// Line and Column locate the first problem, counting from 1.
	Line, Column int
}

func newSyntaxError(source []byte, problems []syntax.Problem) *SyntaxError {
	first := source[:problems[0].Start]
	line := bytes.Count(first, []byte("\n")) + 1
	column := len(first) - bytes.LastIndexByte(first, '\n')
	return &SyntaxError{Problems: problems, Line: line, Column: column}
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Problems[0].Message)
	if more := len(e.Problems) - 1; more > 0 {
		msg += fmt.Sprintf(" (and %d more)", more)
	}
	return msg
}

// Mode says what Batch.Run does with each result.
type Mode int

const (
	// Print writes formatted sources to the output.
	Print Mode = iota
	// Write rewrites changed files in place.
	Write
	// List writes the paths of files whose formatting differs.
	List
)

// Batch formats many files at once.
type Batch struct {
	Options    sexp.Options
	Mode       Mode
	Extensions []string
	// Limit bounds how many files are formatted concurrently. Zero means
	// GOMAXPROCS.
	Limit int
}

// Run formats every file named by paths, walking directories for the files
// beneath them matching b.Extensions. Output is written in path order.
func (b Batch) Run(ctx context.Context, paths []string, out io.Writer) error {
	files, err := b.expand(paths)
	if err != nil {
		return err
	}

	results := make([][]byte, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	limit := b.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(limit)

	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := b.formatOne(ctx, file)
			if err != nil {
				return fmt.Errorf("formatting %s: %w", file, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if _, err := out.Write(res); err != nil {
			return err
		}
	}
	return nil
}

// formatOne formats file and returns what should be written to the output
// for it.
func (b Batch) formatOne(ctx context.Context, file string) ([]byte, error) {
	res, err := formatFile(file, b.Options)
	if err != nil {
		return nil, err
	}

	switch b.Mode {
	case List:
		if res.changed {
			return []byte(file + "\n"), nil
		}
		return nil, nil
	case Write:
		if len(res.problems) > 0 {
			return nil, newSyntaxError(res.source, res.problems)
		}
		if !res.changed {
			return nil, nil
		}
		info, err := os.Stat(file)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(file, []byte(res.formatted), info.Mode().Perm()); err != nil {
			return nil, err
		}
		ioctx.LoggerFromContext(ctx).InfoContext(ctx, "formatted", "path", file)
		return nil, nil
	default:
		return []byte(res.formatted), nil
	}
}

func (b Batch) expand(paths []string) ([]string, error) {
	exts := b.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("accessing %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(file string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && hasExtension(entry.Name(), exts) {
				files = append(files, file)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return files, nil
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// FormatReader formats everything read from r, for stdin.
func FormatReader(r io.Reader, opts sexp.Options) (string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	formatted, err := Format(buf.Bytes(), opts)
	if err != nil {
		return "", err
	}
	return formatted + "\n", nil
}
