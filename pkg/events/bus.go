package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/logger"
)

// Event is a domain event published after a state mutation commits.
type Event struct {
	ID         uuid.UUID
	Name       string
	OccurredAt time.Time
	Payload    any
}

// Handler consumes one event. Handlers must be best effort: returning from a
// handler is the only acknowledgement, and failures stay inside the handler.
type Handler func(ctx context.Context, evt Event)

// Bus is the in-process asynchronous event bus. Publish never blocks the
// publisher and gives no ordering guarantee between events, including events
// for the same aggregate.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
	closed   bool
	logg     *logger.Logger
}

func NewBus(logg *logger.Logger) *Bus {
	return &Bus{logg: logg}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish dispatches the event to every handler on its own goroutine. The
// handler context is detached from the publisher's cancellation so a finished
// HTTP request does not abort in-flight notification work.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		if b.logg != nil {
			b.logg.Warn(ctx, "event dropped: bus closed")
		}
		return
	}

	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range b.handlers {
		handler := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil && b.logg != nil {
					hctx := b.logg.WithFields(detached, map[string]any{
						"event": evt.Name,
						"panic": r,
					})
					b.logg.Error(hctx, "event handler panicked", nil)
				}
			}()
			handler(detached, evt)
		}()
	}
}

// Close stops accepting events and waits for in-flight handlers, bounded by
// the supplied context.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
