package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"WikiFetch/internal/domain"
)

// ArticleFetchedEvent is published once per successful article fetch.
const ArticleFetchedEvent = "article.fetched"

// Event is the payload delivered to subscribers.
type Event struct {
	Name    string         `json:"event"`
	ID      string         `json:"id"`
	Title   domain.Title   `json:"title"`
	Article domain.Article `json:"content"`
}

// ArticleFetched builds the article.fetched event for a result.
func ArticleFetched(result domain.FetchResult) Event {
	return Event{
		Name:    ArticleFetchedEvent,
		ID:      uuid.NewString(),
		Title:   result.Title,
		Article: result.Content(),
	}
}

// Handler consumes a published event.
type Handler func(ctx context.Context, evt Event)

type entry struct {
	id      uint64
	handler Handler
}

// Bus fans events out to handlers registered under the event name. It is
// created once per process and handed to the components that need it.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]entry
	logger   *slog.Logger
}

// New builds an empty bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{handlers: map[string][]entry{}, logger: logger}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus  *Bus
	name string
	id   uint64
	once sync.Once
}

// Subscribe registers handler for the named event.
func (b *Bus) Subscribe(name string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[name] = append(b.handlers[name], entry{id: b.nextID, handler: handler})
	b.debug("subscribe", "event", name, "subscribers", len(b.handlers[name]))

	return &Subscription{bus: b, name: name, id: b.nextID}
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.name, s.id)
	})
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.handlers[name]
	kept := make([]entry, 0, len(current))
	for _, e := range current {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(b.handlers, name)
	} else {
		b.handlers[name] = kept
	}
	b.debug("unsubscribe", "event", name, "subscribers", len(kept))
}

// Publish delivers evt to every handler registered for evt.Name when the
// call starts, synchronously and in registration order. Each handler gets
// its own copy of the article.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	snapshot := make([]entry, len(b.handlers[evt.Name]))
	copy(snapshot, b.handlers[evt.Name])
	b.mu.RUnlock()

	b.debug("publish", "event", evt.Name, "title", evt.Title.String(), "subscribers", len(snapshot))
	for _, e := range snapshot {
		delivered := evt
		delivered.Article = evt.Article.Clone()
		b.deliver(ctx, e, delivered)
	}
}

// deliver runs one handler; a panicking handler is logged and does not
// keep the event from the handlers after it.
func (b *Bus) deliver(ctx context.Context, e entry, evt Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("event handler panicked", "event", evt.Name, "subscription", e.id, "panic", r)
		}
	}()
	e.handler(ctx, evt)
}

// Subscribers returns the number of handlers registered for name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

func (b *Bus) debug(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
