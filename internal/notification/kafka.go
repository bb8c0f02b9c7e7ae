// Package notification dispatches order confirmations. The workflow treats
// dispatch as advisory: failures are logged and counted, never escalated.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/checkout-service/internal/domain/order"
)

var senderTracer = otel.Tracer("notification/kafka")

// orderConfirmedEvent is the wire shape of an order confirmation.
type orderConfirmedEvent struct {
	OrderID    string         `json:"order_id"`
	CustomerID string         `json:"customer_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Total      string         `json:"total"`
	Payment    paymentPayload `json:"payment"`
	Items      []itemPayload  `json:"items"`
}

type paymentPayload struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	SlipReference string     `json:"slip_reference,omitempty"`
}

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Discount  string `json:"discount"`
}

// KafkaSender publishes order confirmations to a Kafka topic, keyed by order
// ID so confirmations for one order stay on one partition.
type KafkaSender struct {
	writer *kafka.Writer
	topic  string
}

var _ order.ConfirmationSender = (*KafkaSender)(nil)

// NewKafkaSender creates a sender writing to the given brokers and topic.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

// SendOrderConfirmation publishes the confirmation event for o.
func (s *KafkaSender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	items := make([]itemPayload, len(o.Items))
	for i, li := range o.Items {
		items[i] = itemPayload{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Price:     li.Price.StringFixed(2),
			Discount:  li.Discount.StringFixed(2),
		}
	}

	event := orderConfirmedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		CreatedAt:  o.CreatedAt,
		Total:      o.Total().StringFixed(2),
		Payment: paymentPayload{
			Method:        string(o.Payment.Method),
			Status:        string(o.Payment.Status),
			DueDate:       o.Payment.DueDate,
			SlipReference: o.Payment.SlipReference,
		},
		Items: items,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal confirmation event")
	}

	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: data,
	}

	ctx, span := senderTracer.Start(ctx, "send "+s.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(s.topic),
			semconv.MessagingKafkaMessageKey(o.ID),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, messageCarrier{msg: &msg})

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrap(err, "write confirmation message")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

// messageCarrier adapts a kafka message's headers to the OTel propagation
// carrier interface.
type messageCarrier struct {
	msg *kafka.Message
}

func (c messageCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c messageCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c messageCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}
