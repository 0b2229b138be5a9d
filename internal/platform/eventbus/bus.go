// Package eventbus is a typed in-process publish/subscribe bus. Delivery is
// synchronous and best effort: a failing or panicking handler is logged and
// never affects the publisher or the remaining handlers.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Named is implemented by every event carried on a bus.
type Named interface {
	EventName() string
}

// Handler consumes one event.
type Handler[E Named] func(ctx context.Context, event E) error

const allEvents = "*"

// Bus fans events out to handlers subscribed by event name.
type Bus[E Named] struct {
	mu       sync.RWMutex
	handlers map[string]map[uint64]Handler[E]
	nextID   uint64
	logger   *slog.Logger
}

// Option configures a bus.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger reports handler failures to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an empty bus.
func New[E Named](opts ...Option) *Bus[E] {
	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Bus[E]{handlers: map[string]map[uint64]Handler[E]{}, logger: cfg.logger}
}

// Subscribe registers h for events called name and returns a cancel func.
func (b *Bus[E]) Subscribe(name string, h Handler[E]) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.handlers[name] == nil {
		b.handlers[name] = map[uint64]Handler[E]{}
	}
	b.handlers[name][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[name], id)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus[E]) SubscribeAll(h Handler[E]) (cancel func()) {
	return b.Subscribe(allEvents, h)
}

// Publish delivers event to its subscribers in subscription order.
func (b *Bus[E]) Publish(ctx context.Context, event E) {
	name := event.EventName()
	for _, h := range b.snapshot(name) {
		if err := b.dispatch(ctx, h, event); err != nil && b.logger != nil {
			b.logger.LogAttrs(ctx, slog.LevelWarn, "event handler failed",
				slog.String("event", name), slog.String("error", err.Error()))
		}
	}
}

func (b *Bus[E]) snapshot(name string) []Handler[E] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	type entry struct {
		id uint64
		h  Handler[E]
	}
	var entries []entry
	for _, key := range []string{name, allEvents} {
		for id, h := range b.handlers[key] {
			entries = append(entries, entry{id: id, h: h})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	out := make([]Handler[E], 0, len(entries))
	for _, e := range entries {
		out = append(out, e.h)
	}
	return out
}

func (b *Bus[E]) dispatch(ctx context.Context, h Handler[E], event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}
