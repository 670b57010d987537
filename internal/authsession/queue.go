package authsession

import (
	"context"
	"sync"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// eventQueue is an unbounded FIFO of session events. push never blocks, so
// the store's notifier is never held up by a slow profile lookup.
type eventQueue struct {
	mu     sync.Mutex
	items  []domain.SessionEvent
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev domain.SessionEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until an event is available or ctx is done.
func (q *eventQueue) pop(ctx context.Context) (domain.SessionEvent, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = domain.SessionEvent{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return domain.SessionEvent{}, false
		}
	}
}
