package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/boxstock/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Message header keys
const (
	HeaderEventType     = "event-type"
	HeaderEventID       = "event-id"
	HeaderAggregateType = "aggregate-type"
	HeaderContentType   = "content-type"
)

// MessageWriter is the part of *kafka.Writer the producer uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events to Kafka, one topic per aggregate type,
// keyed by aggregate id so a partition sees one aggregate's events in order
type Producer struct {
	writer      MessageWriter
	serializer  *event.EventSerializer
	topicPrefix string
	logger      *zap.Logger
}

// NewKafkaWriter builds the shared writer. Topic is left empty so every
// message carries its own.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewProducer creates a new Kafka producer
func NewProducer(writer MessageWriter, serializer *event.EventSerializer, topicPrefix string, logger *zap.Logger) *Producer {
	return &Producer{
		writer:      writer,
		serializer:  serializer,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// TopicFor returns the topic for an aggregate type, e.g. boxstock.stock_record
func TopicFor(prefix, aggregateType string) string {
	var b strings.Builder
	for i, r := range aggregateType {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	if prefix == "" {
		return b.String()
	}
	return prefix + "." + b.String()
}

// Publish writes events in one batch
func (p *Producer) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := p.message(ctx, e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d events: %w", len(msgs), err)
	}

	p.logger.Debug("events published",
		zap.Int("count", len(msgs)),
		zap.String("first_topic", msgs[0].Topic),
	)
	return nil
}

func (p *Producer) message(ctx context.Context, e shared.DomainEvent) (kafka.Message, error) {
	value, err := p.serializer.Serialize(e)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{
		Topic: TopicFor(p.topicPrefix, e.AggregateType()),
		Key:   []byte(e.AggregateID().String()),
		Value: value,
		Time:  e.OccurredAt().UTC().Truncate(time.Millisecond),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.EventType())},
			{Key: HeaderEventID, Value: []byte(e.EventID().String())},
			{Key: HeaderAggregateType, Value: []byte(e.AggregateType())},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})
	return msg, nil
}

// Close flushes pending writes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// headerCarrier adapts kafka headers to propagation.TextMapCarrier
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}
