package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/ports"

	"github.com/redis/go-redis/v9"
)

const envelopeField = "envelope"

const readBatch = 32

// RedisStreams publishes each topic to a Redis stream and consumes it with
// consumer groups. Delivery is at-least-once: entries are acknowledged only
// after the handler returns nil. On start the consumer replays its own
// pending entries, and every ClaimIdle it claims entries of the group that
// stayed unacknowledged that long, including its own failed ones.
type RedisStreams struct {
	client    redis.UniversalClient
	prefix    string
	consumer  string
	maxLen    int64
	block     time.Duration
	claimIdle time.Duration
	logger    *slog.Logger
}

type RedisStreamsOptions struct {
	Prefix    string
	Consumer  string
	MaxLen    int64
	Block     time.Duration
	ClaimIdle time.Duration
}

func NewRedisStreams(client redis.UniversalClient, opts RedisStreamsOptions, logger *slog.Logger) *RedisStreams {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Prefix == "" {
		opts.Prefix = "power:events:"
	}
	if opts.Consumer == "" {
		opts.Consumer = "power-engine"
	}
	if opts.MaxLen <= 0 {
		opts.MaxLen = 100000
	}
	if opts.Block <= 0 {
		opts.Block = 2 * time.Second
	}
	if opts.ClaimIdle <= 0 {
		opts.ClaimIdle = time.Minute
	}
	return &RedisStreams{
		client:    client,
		prefix:    opts.Prefix,
		consumer:  opts.Consumer,
		maxLen:    opts.MaxLen,
		block:     opts.Block,
		claimIdle: opts.ClaimIdle,
		logger:    logger,
	}
}

func (r *RedisStreams) stream(topic string) string {
	return r.prefix + strings.TrimSpace(topic)
}

func (r *RedisStreams) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream(topic),
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			envelopeField:   payload,
			"partition_key": event.PartitionKey,
		},
	}).Err()
}

func (r *RedisStreams) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	stream := r.stream(topic)
	err := r.client.XGroupCreateMkStream(ctx, stream, consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	go func() {
		r.replayPending(ctx, stream, consumerGroup, handler)
		lastClaim := time.Now()
		for ctx.Err() == nil {
			if time.Since(lastClaim) >= r.claimIdle {
				r.claimIdleEntries(ctx, stream, consumerGroup, handler)
				lastClaim = time.Now()
			}
			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: r.consumer,
				Streams:  []string{stream, ">"},
				Count:    readBatch,
				Block:    r.block,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				r.logReadFailure(stream, "read", err)
				time.Sleep(r.block)
				continue
			}
			for _, item := range streams {
				for _, message := range item.Messages {
					r.handle(ctx, stream, consumerGroup, message, handler)
				}
			}
		}
	}()
	return nil
}

// replayPending walks this consumer's pending entries once, oldest first.
// Entries whose handler fails again stay pending for the idle claim.
func (r *RedisStreams) replayPending(
	ctx context.Context,
	stream string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	after := "0"
	for ctx.Err() == nil {
		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: r.consumer,
			Streams:  []string{stream, after},
			Count:    readBatch,
			Block:    -1,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				r.logReadFailure(stream, "pending", err)
			}
			return
		}
		replayed := 0
		for _, item := range streams {
			for _, message := range item.Messages {
				r.handle(ctx, stream, consumerGroup, message, handler)
				after = message.ID
				replayed++
			}
		}
		if replayed == 0 {
			return
		}
	}
}

// claimIdleEntries takes over entries that no consumer acknowledged within
// claimIdle and hands them to handler again.
func (r *RedisStreams) claimIdleEntries(
	ctx context.Context,
	stream string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	start := "0-0"
	for ctx.Err() == nil {
		messages, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    consumerGroup,
			Consumer: r.consumer,
			MinIdle:  r.claimIdle,
			Start:    start,
			Count:    readBatch,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				r.logReadFailure(stream, "claim", err)
			}
			return
		}
		for _, message := range messages {
			r.logger.Info("redis stream entry claimed for redelivery",
				"event", "redis_stream_entry_claimed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"stream", stream,
				"consumer_group", consumerGroup,
				"message_id", message.ID,
			)
			r.handle(ctx, stream, consumerGroup, message, handler)
		}
		if next == "0-0" || next == "" || len(messages) == 0 {
			return
		}
		start = next
	}
}

func (r *RedisStreams) logReadFailure(stream string, phase string, err error) {
	r.logger.Error("redis stream read failed",
		"event", "redis_stream_read_failed",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"stream", stream,
		"phase", phase,
		"error", err.Error(),
	)
}

func (r *RedisStreams) handle(
	ctx context.Context,
	stream string,
	consumerGroup string,
	message redis.XMessage,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	raw, _ := message.Values[envelopeField].(string)
	var event ports.EventEnvelope
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		r.logger.Error("redis stream entry is not an envelope",
			"event", "redis_stream_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"message_id", message.ID,
			"error", err.Error(),
		)
		_ = r.client.XAck(ctx, stream, consumerGroup, message.ID).Err()
		return
	}
	if err := handler(ctx, event); err != nil {
		r.logger.Error("consumer handler failed",
			"event", "redis_stream_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return
	}
	if err := r.client.XAck(ctx, stream, consumerGroup, message.ID).Err(); err != nil {
		r.logger.Warn("redis stream ack failed",
			"event", "redis_stream_ack_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"message_id", message.ID,
			"error", err.Error(),
		)
	}
}

var (
	_ ports.EventPublisher  = (*RedisStreams)(nil)
	_ ports.EventSubscriber = (*RedisStreams)(nil)
)
