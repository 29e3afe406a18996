// ABOUTME: Structured process logger built on charmbracelet/log
// ABOUTME: Text output on a terminal, JSON otherwise; level can change at runtime

package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Formats accepted by New.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w. An "auto" format picks text when w is a terminal.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var formatter log.Formatter
	switch resolveFormat(w, format) {
	case FormatText:
		formatter = log.TextFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
		Formatter:       formatter,
		Prefix:          "prospecta",
	}), nil
}

// ParseLevel maps a config string to a log level; empty means info.
func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func resolveFormat(w io.Writer, format string) string {
	if format != "" && format != FormatAuto {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatText
	}
	return FormatJSON
}

// Discard is a logger that drops everything, for tests and quiet commands.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// FromContext returns the logger stored in ctx, or the package default.
func FromContext(ctx context.Context) *log.Logger {
	return log.FromContext(ctx)
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return log.WithContext(ctx, l)
}
