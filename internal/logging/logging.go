package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Setup initializes the default slog logger writing to w. format is "json"
// or "text"; level is debug, info, warn or error.
func Setup(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch format {
	case "", "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q: must be json or text", format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger returns a context with the given logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RequestFields holds all fields logged per preview request.
type RequestFields struct {
	Method   string
	Path     string
	Status   int
	Cache    string
	Source   string
	Token    string
	RenderMs int64
	TotalMs  int64
	Bytes    int64
}

// LogRequest logs a completed request with structured fields.
func LogRequest(logger *slog.Logger, f RequestFields) {
	level := slog.LevelInfo
	if f.Status >= 500 {
		level = slog.LevelError
	} else if f.Status >= 400 {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "request",
		"method", f.Method,
		"path", f.Path,
		"status", f.Status,
		"cache", f.Cache,
		"source", f.Source,
		"token", f.Token,
		"render_ms", f.RenderMs,
		"total_ms", f.TotalMs,
		"bytes", f.Bytes,
	)
}

// PageFields holds the fields logged for each page a build writes.
type PageFields struct {
	Input    string
	Output   string
	Source   string
	Token    string
	Sections int
	Embeds   int
	Steps    []string
	RenderMs int64
	Err      error
}

// LogPage logs one built page. Failed pages are logged at error level.
func LogPage(logger *slog.Logger, f PageFields) {
	if f.Err != nil {
		logger.Error("page failed",
			"input", f.Input,
			"source", f.Source,
			"error", f.Err,
		)
		return
	}

	logger.Info("page",
		"input", f.Input,
		"output", f.Output,
		"source", f.Source,
		"token", f.Token,
		"sections", f.Sections,
		"embeds", f.Embeds,
		"steps", strings.Join(f.Steps, ","),
		"render_ms", f.RenderMs,
	)
}

// ByteCountingWriter wraps http.ResponseWriter to capture status code and bytes written.
type ByteCountingWriter struct {
	http.ResponseWriter
	StatusCode int
	Bytes      int64
}

// WriteHeader captures the status code.
func (w *ByteCountingWriter) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written.
func (w *ByteCountingWriter) Write(b []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = 200
	}
	n, err := w.ResponseWriter.Write(b)
	w.Bytes += int64(n)
	return n, err
}
