package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// EventBus fans session events out over Redis pub/sub, one channel per
// subject: session-events:<subject>. Every API replica serving an SSE
// stream for that subject receives the event.
type EventBus struct {
	client *redis.Client
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

type eventMessage struct {
	Type domain.SessionEventType `json:"type"`
}

func (b *EventBus) Publish(ctx context.Context, subject string, eventType domain.SessionEventType) error {
	payload, err := json.Marshal(eventMessage{Type: eventType})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel(subject), payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// Subscribe listens for subject's events until ctx is cancelled or the
// returned stop func is called. The subscription is confirmed before
// Subscribe returns, so events published afterwards are not missed.
func (b *EventBus) Subscribe(ctx context.Context, subject string) (<-chan domain.SessionEventType, func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(subject))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan domain.SessionEventType, 16)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var em eventMessage
				if err := json.Unmarshal([]byte(msg.Payload), &em); err != nil {
					continue
				}
				select {
				case out <- em.Type:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = ps.Close() }, nil
}

func (b *EventBus) channel(subject string) string {
	return "session-events:" + subject
}
