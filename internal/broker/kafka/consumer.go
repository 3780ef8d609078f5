package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderUpdateHandler applies one decoded update. A returned error is treated as transient.
type OrderUpdateHandler func(ctx context.Context, msg messages.OrderUpdated) error

// Consumer reads OrderUpdated events from one topic.
type Consumer struct {
	r messageReader

	retryBase time.Duration
	retryMax  time.Duration
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg))
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{
		r:         r,
		retryBase: 200 * time.Millisecond,
		retryMax:  10 * time.Second,
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume blocks until ctx is done or the reader fails. Payloads that do not decode, or
// carry no tracking number, are logged and committed. A handler error is retried with
// backoff on the same message; the offset is committed only after the handler succeeds.
func (c *Consumer) Consume(ctx context.Context, handler OrderUpdateHandler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "fetch message")
		}

		upd, ok := decodeOrderUpdated(msg)
		if ok {
			if err := c.handleWithRetry(ctx, handler, upd); err != nil {
				// ctx отменён: не коммитим, сообщение прочитает следующий консьюмер группы
				return err
			}
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

func decodeOrderUpdated(msg kafka.Message) (messages.OrderUpdated, bool) {
	var upd messages.OrderUpdated
	if err := json.Unmarshal(msg.Value, &upd); err != nil {
		slog.Warn("skip malformed order update", "offset", msg.Offset, "error", err.Error())
		return upd, false
	}
	if upd.TrackingNumber == "" {
		slog.Warn("skip order update without tracking number", "offset", msg.Offset, "event_id", upd.EventID)
		return upd, false
	}
	return upd, true
}

func (c *Consumer) handleWithRetry(ctx context.Context, handler OrderUpdateHandler, upd messages.OrderUpdated) error {
	delay := c.retryBase
	for attempt := 1; ; attempt++ {
		err := handler(ctx, upd)
		if err == nil {
			return nil
		}
		slog.Warn("order update handler failed",
			"tracking_number", upd.TrackingNumber,
			"attempt", attempt,
			"retry_in", delay.String(),
			"error", err.Error(),
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay *= 2
		if delay > c.retryMax {
			delay = c.retryMax
		}
	}
}
