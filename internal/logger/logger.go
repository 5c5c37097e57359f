// Package logger configures the process-wide slog logger.
package logger

import (
	"context"
	"io"
	"log/slog"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

type requestIDKey struct{}

// WithRequestID stores id so that every *Context log call made while
// serving the request carries it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// New builds a logger writing to w in the given format ("pretty" or "json").
func New(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if format == FormatJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = NewPrettyHandler(w, opts)
	}

	return slog.New(contextHandler{Handler: base})
}

// contextHandler adds the request id found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
