package reporter

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

const queryAttrKey = "query"

// QueryLogHandler writes the statement text of every Debug record carrying a "query" attribute to out,
// one statement per line, in emission order. Other records, including failures that name the
// failed statement, go to next, if set.
type QueryLogHandler struct {
	mu   *sync.Mutex
	out  io.Writer
	next slog.Handler
}

func NewQueryLogHandler(out io.Writer, next slog.Handler) *QueryLogHandler {
	return &QueryLogHandler{mu: &sync.Mutex{}, out: out, next: next}
}

func (h *QueryLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return true
	}

	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *QueryLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level != slog.LevelDebug {
		return h.forward(ctx, record)
	}

	var query string

	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == queryAttrKey {
			query = attr.Value.String()
			return false
		}

		return true
	})

	if query != "" {
		h.mu.Lock()
		defer h.mu.Unlock()

		_, err := io.WriteString(h.out, query+"\n")

		return err
	}

	return h.forward(ctx, record)
}

func (h *QueryLogHandler) forward(ctx context.Context, record slog.Record) error {
	if h.next == nil || !h.next.Enabled(ctx, record.Level) {
		return nil
	}

	return h.next.Handle(ctx, record)
}

func (h *QueryLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}

	return &clone
}

func (h *QueryLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}

	return &clone
}
