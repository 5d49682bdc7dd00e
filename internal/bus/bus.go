// Package bus is a small synchronous event bus standing in for the voice
// assistant's message bus.
package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Playback control events.
const (
	Next     = "next"
	Previous = "previous"
	Pause    = "pause"
	Resume   = "resume"
)

// aliases maps the assistant's fully qualified audio-service topics to the
// short event names.
var aliases = map[string]string{
	"mycroft.audio.service.next":   Next,
	"mycroft.audio.service.prev":   Previous,
	"mycroft.audio.service.pause":  Pause,
	"mycroft.audio.service.resume": Resume,
	"prev":                         Previous,
}

var ErrNoSubscribers = errors.New("no subscribers for event")

type Handler func(ctx context.Context) error

type subscription struct {
	name    string
	handler Handler
}

// Bus dispatches events to their handlers one at a time, in subscription order.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]subscription
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{handlers: make(map[string][]subscription), logger: logger}
}

// Canonical resolves aliases and normalizes case.
func Canonical(event string) string {
	event = strings.ToLower(strings.TrimSpace(event))
	if name, ok := aliases[event]; ok {
		return name
	}
	return event
}

// Subscribe registers handler for event. name identifies the subscriber in logs.
func (b *Bus) Subscribe(event, name string, handler Handler) {
	event = Canonical(event)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], subscription{name: name, handler: handler})
}

// Publish runs every handler subscribed to event. All handlers run even if one
// fails; the errors are joined.
func (b *Bus) Publish(ctx context.Context, event string) error {
	event = Canonical(event)

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubscribers, event)
	}

	b.logger.Debug("bus event", "event", event, "subscribers", len(subs))

	var errs []error
	for _, sub := range subs {
		if err := sub.handler(ctx); err != nil {
			b.logger.Warn("bus handler failed", "event", event, "subscriber", sub.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sub.name, err))
		}
	}
	return errors.Join(errs...)
}

// Events lists the events that have subscribers.
func (b *Bus) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.handlers))
	for event := range b.handlers {
		out = append(out, event)
	}
	return out
}
