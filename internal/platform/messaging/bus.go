package messaging

import (
	"context"
	"log/slog"
	"sync"

	"powertrack/contexts/progression/power-engine/ports"
)

// Bus is the in-process event bus used when no broker is configured. Each
// consumer group on a topic receives every event once; delivery to a full
// group buffer is dropped and logged.
type Bus struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan ports.EventEnvelope
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		groups: make(map[string]map[string]chan ports.EventEnvelope),
		logger: logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	targets := make([]chan ports.EventEnvelope, 0, len(b.groups[topic]))
	for _, ch := range b.groups[topic] {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- event:
		default:
			b.logger.Warn("dropping event for slow consumer group",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe starts a consumer for topic. A second Subscribe with the same
// consumer group replaces the first. The consumer stops with ctx.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	ch := make(chan ports.EventEnvelope, 128)

	b.mu.Lock()
	if _, ok := b.groups[topic]; !ok {
		b.groups[topic] = make(map[string]chan ports.EventEnvelope)
	}
	b.groups[topic][consumerGroup] = ch
	b.mu.Unlock()

	go func() {
		defer b.unsubscribe(topic, consumerGroup, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) unsubscribe(topic string, consumerGroup string, ch chan ports.EventEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.groups[topic][consumerGroup]; ok && current == ch {
		delete(b.groups[topic], consumerGroup)
	}
}

var (
	_ ports.EventPublisher  = (*Bus)(nil)
	_ ports.EventSubscriber = (*Bus)(nil)
)
