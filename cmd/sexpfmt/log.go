package main

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// setupLogging installs a charmbracelet logger as the slog default and
// returns it. Debug enables debug-level output.
func setupLogging(w io.Writer, debug bool) *slog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
