// Package logger configures structured logging for the document locator.
// Records are emitted through log/slog in either human-readable text or
// JSON, and can be routed to stdout, stderr, or split automatically so
// warnings and errors land on stderr while routine output stays on stdout.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Destination selects where records are written.
type Destination string

const (
	// DestinationAuto writes INFO and below to stdout, WARN and above to stderr.
	DestinationAuto   Destination = "auto"
	DestinationStdout Destination = "stdout"
	DestinationStderr Destination = "stderr"
)

// Configure builds the process logger and installs it as the slog default.
func Configure(level string, format Format, destination Destination) (*slog.Logger, error) {
	handler, err := buildHandler(os.Stdout, os.Stderr, level, format, destination)
	if err != nil {
		return nil, err
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

func buildHandler(stdout, stderr io.Writer, level string, format Format, destination Destination) (slog.Handler, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	switch destination {
	case DestinationStdout:
		return newHandler(stdout, lvl, format)
	case DestinationStderr:
		return newHandler(stderr, lvl, format)
	case DestinationAuto, "":
		low, err := newHandler(stdout, lvl, format)
		if err != nil {
			return nil, err
		}
		high, err := newHandler(stderr, lvl, format)
		if err != nil {
			return nil, err
		}
		return &splitHandler{stdout: low, stderr: high}, nil
	default:
		return nil, fmt.Errorf("unknown log destination: %s", destination)
	}
}

func newHandler(w io.Writer, lvl slog.Level, format Format) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatText, "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", value)
	}
}

// splitHandler routes WARN and above to stderr and everything else to
// stdout, so shell pipelines can separate diagnostics from output.
type splitHandler struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn {
		return h.stderr.Enabled(ctx, level)
	}
	return h.stdout.Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return h.stderr.Handle(ctx, record)
	}
	return h.stdout.Handle(ctx, record)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{stdout: h.stdout.WithAttrs(attrs), stderr: h.stderr.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{stdout: h.stdout.WithGroup(name), stderr: h.stderr.WithGroup(name)}
}
