// Package log holds the single diagnostic sink shared by every package in this module. Nothing is written until To is
// called with a handler.
package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
	ChannelKey   = "channel"
	RawKey       = "raw"
)

// Error returns a slog.Attr for the provided error. The key will be ErrorKey.
func Error(e error) slog.Attr {
	return slog.Any(ErrorKey, e)
}

// Channel returns a slog.Attr naming the channel a record is about. The key will be ChannelKey.
func Channel(id string) slog.Attr {
	return slog.String(ChannelKey, id)
}

// Raw returns a slog.Attr holding an undecoded device value. The key will be RawKey.
func Raw(v string) slog.Attr {
	return slog.String(RawKey, v)
}

// indirectHandler forwards to whatever slog.Handler was most recently passed to To. Attributes and groups added to a
// derived handler are replayed onto the live handler, so loggers built by ForComponent before To is called start
// writing (with their attributes) as soon as a handler is installed. The replayed handler is cached until To is called
// again.
type indirectHandler struct {
	root *atomic.Pointer[slog.Handler]
	ops  []func(slog.Handler) slog.Handler

	cache atomic.Pointer[derivedHandler]
}

// derivedHandler is the result of replaying ops onto the root handler it was built from.
type derivedHandler struct {
	root    *slog.Handler
	handler slog.Handler
}

func (i *indirectHandler) current() slog.Handler {
	h := i.root.Load()
	if h == nil {
		return nil
	}

	if len(i.ops) == 0 {
		return *h
	}

	if c := i.cache.Load(); c != nil && c.root == h {
		return c.handler
	}

	handler := *h
	for _, op := range i.ops {
		handler = op(handler)
	}

	i.cache.Store(&derivedHandler{root: h, handler: handler})
	return handler
}

func (i *indirectHandler) derive(op func(slog.Handler) slog.Handler) *indirectHandler {
	ops := make([]func(slog.Handler) slog.Handler, 0, len(i.ops)+1)
	ops = append(ops, i.ops...)

	return &indirectHandler{root: i.root, ops: append(ops, op)}
}

func (i *indirectHandler) Enabled(ctx context.Context, level slog.Level) bool {
	h := i.current()
	if h == nil {
		return false
	}

	return h.Enabled(ctx, level)
}

func (i *indirectHandler) Handle(ctx context.Context, record slog.Record) error {
	h := i.current()
	if h == nil {
		return nil
	}

	return h.Handle(ctx, record)
}

func (i *indirectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return i.derive(func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

func (i *indirectHandler) WithGroup(name string) slog.Handler {
	return i.derive(func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}

var _ slog.Handler = &indirectHandler{}

var (
	sink = &indirectHandler{root: &atomic.Pointer[slog.Handler]{}}
)

// To routes every slog.Logger handed out by this package to the provided slog.Handler. Records are discarded until To
// is called at least once with a non-discarding handler. It is safe to call To concurrently with logging.
func To(h slog.Handler) {
	sink.root.Store(&h)
}

// ForComponent constructs a slog.Logger for the specified component (which is stored in an attribute with the key
// ComponentKey).
func ForComponent(component string) *slog.Logger {
	return slog.New(sink).With(slog.String(ComponentKey, component))
}
