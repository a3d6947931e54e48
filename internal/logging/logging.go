// Package logging builds the es.Logger used by the command line tools on top
// of log/slog, optionally fanning records out to a Seq server.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing/es"
)

// Options configures Setup.
type Options struct {
	// Level is one of debug, info, warn or error (default: info).
	Level string

	// SeqURL enables the Seq sink when set, e.g. "http://localhost:5341".
	SeqURL string

	// Output receives console records (required).
	Output io.Writer
}

// Logger adapts a slog.Logger to es.Logger and adds a warning level.
type Logger struct {
	slog *slog.Logger
}

var (
	_ es.Logger            = (*Logger)(nil)
	_ tablesync.WarnLogger = (*Logger)(nil)
)

// New wraps an existing slog.Logger.
func New(l *slog.Logger) *Logger {
	return &Logger{slog: l}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.slog.WarnContext(ctx, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// ParseLevel maps a level name to a slog.Level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Setup builds the logger and returns a cleanup function flushing the Seq sink.
func Setup(opts Options) (*Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(opts.Output, handlerOpts)

	if opts.SeqURL == "" {
		return New(slog.New(console)), func() {}, nil
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(50),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(handlerOpts),
	)

	// If Seq is not available, use console only
	if seqHandler == nil {
		return New(slog.New(console)), func() {}, nil
	}

	multi := &multiHandler{
		handlers: []slog.Handler{console, seqHandler},
	}

	return New(slog.New(multi)), func() { seqHandler.Close() }, nil
}
