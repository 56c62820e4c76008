package server

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
}

// Console fans log messages out to subscribed web clients. Slow
// subscribers miss messages rather than block logging.
type Console struct {
	mu   sync.Mutex
	subs map[chan ConsoleMessage]struct{}
}

// NewConsole creates an empty console
func NewConsole() *Console {
	return &Console{subs: make(map[chan ConsoleMessage]struct{})}
}

// Subscribe returns a channel receiving every published message and a
// function that unsubscribes and closes it
func (c *Console) Subscribe(buffer int) (<-chan ConsoleMessage, func()) {
	ch := make(chan ConsoleMessage, buffer)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends msg to every subscriber that has room for it
func (c *Console) Publish(msg ConsoleMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- msg:
		default:
			// Subscriber full, skip (don't block)
		}
	}
}

// ConsoleHandler is a slog.Handler that forwards records to next and also
// publishes them to a Console
type ConsoleHandler struct {
	next    slog.Handler
	console *Console
	attrs   []slog.Attr
}

// NewConsoleHandler wraps next
func NewConsoleHandler(next slog.Handler, console *Console) *ConsoleHandler {
	return &ConsoleHandler{next: next, console: console}
}

// Enabled follows the wrapped handler
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle publishes the record and passes it on
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(a.Value.String())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	h.console.Publish(ConsoleMessage{
		Message:   sb.String(),
		Timestamp: r.Time,
		Level:     strings.ToLower(r.Level.String()),
	})
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a handler that adds attrs to every record
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConsoleHandler{
		next:    h.next.WithAttrs(attrs),
		console: h.console,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup passes the group to the wrapped handler. Console lines stay flat.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{next: h.next.WithGroup(name), console: h.console, attrs: h.attrs}
}
