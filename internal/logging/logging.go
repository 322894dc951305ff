package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// NewHandler builds a colored, level-prefixed text handler. Debug level turns
// on timestamps so long builds can be paced from the output.
func NewHandler(level string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stderr
	}

	lvl := log.InfoLevel
	reportTimestamp := false
	switch strings.ToLower(level) {
	case "debug":
		lvl = log.DebugLevel
		reportTimestamp = true
	case "info", "":
		lvl = log.InfoLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: reportTimestamp,
	})
}

// Setup installs the handler as the process-wide default logger.
func Setup(level string) {
	slog.SetDefault(slog.New(NewHandler(level, nil)))
}
