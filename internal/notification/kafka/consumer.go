package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/infoshop/orderflow/internal/notification"
	"github.com/infoshop/orderflow/internal/order/domain"
	"github.com/infoshop/orderflow/pkg/tracing"
)

// SeenStore dedups deliveries. The outbox relay is at-least-once; claiming
// the event id before sending makes the email effectively-once.
type SeenStore interface {
	EventKey(consumer string, eventID int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Consumer reads order events off the broker and feeds the notification
// dispatcher. Handling failures are logged, never redelivered by us: the
// order transition is long since durable and notifications are best-effort.
type Consumer struct {
	log        *slog.Logger
	reader     *kafka.Reader
	dispatcher *notification.Dispatcher
	seen       SeenStore
	group      string
	tracer     trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, dispatcher *notification.Dispatcher, seen SeenStore) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:        log,
		reader:     r,
		dispatcher: dispatcher,
		seen:       seen,
		group:      group,
		tracer:     otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("notification consumer stopping")
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("offset commit failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	kind := tracing.HeaderValue(msg.Headers, "event_type")
	eventID, err := strconv.ParseInt(tracing.HeaderValue(msg.Headers, "event_id"), 10, 64)
	if err != nil {
		c.log.Error("message without usable event_id header", "topic", msg.Topic, "offset", msg.Offset)
		return
	}

	key := c.seen.EventKey(c.group, eventID)
	seen, err := c.seen.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "key", key, "err", err)
		return
	}
	if seen {
		c.log.Debug("duplicate event skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "DispatchNotification")
	defer span.End()

	var snapshot domain.OrderSnapshot
	if err := json.Unmarshal(msg.Value, &snapshot); err != nil {
		c.log.Error("unmarshal order snapshot failed", "err", err)
		return
	}

	if err := c.dispatcher.Dispatch(msgCtx, kind, snapshot); err != nil {
		c.log.Error("notification dispatch failed", "order_id", snapshot.OrderID, "err", err)
	}
}
