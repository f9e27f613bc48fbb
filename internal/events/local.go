package events

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

// LocalBus fans events out inside one process.
type LocalBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[chan Event]struct{})}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (b *LocalBus) Publish(ctx context.Context, sessionID string, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[sessionID] {
		select {
		case ch <- event:
		default:
			slog.WarnContext(ctx, "dropping event for slow subscriber", "session.id", sessionID, "event", event.Type)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[sessionID], ch)
		if len(b.subs[sessionID]) == 0 {
			delete(b.subs, sessionID)
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch, cancel
}
