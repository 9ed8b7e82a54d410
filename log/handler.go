// Package log provides structured logging (slog) routed through the host VM's
// logging facility.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/greetings-dev/greetings-bridge/domain/ports"
)

// HostLogHandler implements slog.Handler to route records through a host logger.
// Records reach the host as plain text; attributes are rendered inline.
type HostLogHandler struct {
	logger ports.HostLogger
	opts   handlerConfig
	attrs  []slog.Attr
	groups []string
}

// HandlerOption configures the HostLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelDebug,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are dropped before reaching the host.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file:line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a new HostLogHandler writing to logger.
func NewHandler(logger ports.HostLogger, opts ...HandlerOption) *HostLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HostLogHandler{logger: logger, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *HostLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// WithAttrs returns a new HostLogHandler that includes the given attributes.
func (h *HostLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	newHandler := h.clone()
	for _, a := range attrs {
		newHandler.attrs = append(newHandler.attrs, h.qualify(a))
	}
	return newHandler
}

// WithGroup returns a new HostLogHandler that qualifies later attribute keys with name.
func (h *HostLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newHandler := h.clone()
	newHandler.groups = append(newHandler.groups, name)
	return newHandler
}

// Handle renders the record as text and sends it to the host.
func (h *HostLogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)

	for _, a := range h.attrs {
		appendAttr(&sb, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.qualify(a))
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		fmt.Fprintf(&sb, " source=%s:%d", filepath.Base(f.File), f.Line)
	}

	return h.logger.Log(PriorityFor(record.Level), sb.String())
}

func (h *HostLogHandler) clone() *HostLogHandler {
	return &HostLogHandler{
		logger: h.logger,
		opts:   h.opts,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *HostLogHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}
