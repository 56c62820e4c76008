// Package logx builds the slog loggers used by the command-line tools,
// with level names colored when writing to a terminal.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// LevelFromFlags returns the [slog.Level] for the given verbosity flags:
//   - vv: [slog.LevelDebug]
//   - q: [slog.LevelError]
//   - v or none: [slog.LevelInfo]
//
// vv wins over q.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses "debug", "info", "warn" or "error"
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logx: parse level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger writing to w at the given level
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Handler writes one line per record: time, colored level, message, attrs
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	output *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

// NewHandler creates a handler. Colors are used only when w is a terminal.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{
		mu:     &sync.Mutex{},
		w:      w,
		output: termenv.NewOutput(w),
		level:  level,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format(time.TimeOnly))
		sb.WriteByte(' ')
	}
	sb.WriteString(h.levelString(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.group, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

// WithAttrs returns a handler that adds attrs to every record
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup returns a handler that prefixes record attribute keys with name
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		h2.group = h.group + "." + name
	} else {
		h2.group = name
	}
	return &h2
}

func (h *Handler) levelString(level slog.Level) string {
	label := fmt.Sprintf("%-5s", level.String())
	var color termenv.Color
	switch {
	case level >= slog.LevelError:
		color = h.output.Color("1")
	case level >= slog.LevelWarn:
		color = h.output.Color("3")
	case level >= slog.LevelInfo:
		color = h.output.Color("4")
	default:
		color = h.output.Color("8")
	}
	return h.output.String(label).Foreground(color).Bold().String()
}

func writeAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := a.Key
		if group != "" {
			prefix = group + "." + a.Key
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, prefix, ga)
		}
		return
	}

	sb.WriteByte(' ')
	if group != "" {
		sb.WriteString(group)
		sb.WriteByte('.')
	}
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	value := a.Value.String()
	if strings.ContainsAny(value, " \t\"=") {
		value = fmt.Sprintf("%q", value)
	}
	sb.WriteString(value)
}
