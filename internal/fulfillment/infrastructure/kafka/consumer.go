package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/coalmart/storefront/internal/fulfillment/application"
	"github.com/coalmart/storefront/internal/fulfillment/domain"
	"github.com/coalmart/storefront/pkg/idempotency"
	"github.com/coalmart/storefront/pkg/tracing"
)

// Consumer is the downstream fulfillment process: it picks up committed
// orders from the order.events topic, emits the shipping instruction and
// marks the order no longer outstanding.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("fulfillment-consumer"),
	}
}

// Sweep processes orders committed while the worker was down. The ledger is
// the source of truth; the topic is only a notification channel.
func (c *Consumer) Sweep(ctx context.Context) error {
	orders, err := c.svc.ListOutstandingOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := c.process(ctx, o.Order.ID); err != nil {
			c.log.Error("sweep order failed", "order_id", o.Order.ID, "err", err)
		}
	}
	return nil
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderPlaced")

		var ev domain.OrderPlaced
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error("unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.process(msgCtx, ev.OrderID); err != nil {
			c.log.Error("order processing failed", "order_id", ev.OrderID, "err", err)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, orderID string) error {
	o, err := c.svc.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.log.Warn("order not found for event", "order_id", orderID)
		return nil
	}
	if err != nil {
		return err
	}
	if !o.Order.Outstanding {
		return nil
	}

	c.log.Info("order to fulfil",
		"order_id", o.Order.ID,
		"recipient", o.Order.Contact.FirstName+" "+o.Order.Contact.LastName,
		"email", o.Order.Contact.Email,
		"phone", o.Order.Contact.Phone,
		"address", o.Order.Contact.AddressLine1+" "+o.Order.Contact.AddressLine2,
		"city", o.Order.Contact.City,
		"postal_code", o.Order.Contact.PostalCode,
		"country", o.Order.Contact.Country,
		"total_cents", o.TotalCents(),
	)
	for _, item := range o.Items {
		c.log.Info("order line",
			"order_id", o.Order.ID,
			"product_id", item.ProductID,
			"quantity", item.Quantity,
			"price_cents", item.PriceCents,
		)
	}

	return c.svc.MarkFulfilled(ctx, orderID)
}
