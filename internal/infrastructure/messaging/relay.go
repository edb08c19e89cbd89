package messaging

import (
	"context"
	"errors"

	"github.com/boxstock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Publish outcomes reported to PublishMetrics
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// EventPublisher is implemented by Producer
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}

// PublishMetrics receives one observation per relayed event
type PublishMetrics interface {
	ObserveKafkaPublish(topic, outcome string)
}

// EventRelay forwards every domain event from the in-process bus to Kafka
// through a circuit breaker. Failures are reported, not retried: the event
// has already been applied locally.
type EventRelay struct {
	publisher   EventPublisher
	breaker     *CircuitBreaker
	topicPrefix string
	metrics     PublishMetrics
	logger      *zap.Logger
}

// NewEventRelay creates a new relay
func NewEventRelay(publisher EventPublisher, breaker *CircuitBreaker, topicPrefix string, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		publisher:   publisher,
		breaker:     breaker,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// SetMetrics sets the publish metrics sink
func (r *EventRelay) SetMetrics(metrics PublishMetrics) {
	r.metrics = metrics
}

// EventTypes returns nil: the relay receives every event
func (r *EventRelay) EventTypes() []string {
	return nil
}

// Handle publishes one event
func (r *EventRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	topic := TopicFor(r.topicPrefix, event.AggregateType())

	err := r.breaker.Execute(func() error {
		return r.publisher.Publish(ctx, event)
	})

	switch {
	case err == nil:
		r.observe(topic, OutcomeSent)
		return nil
	case errors.Is(err, ErrCircuitOpen):
		r.observe(topic, OutcomeRejected)
		r.logger.Warn("event not relayed, circuit open",
			zap.String("topic", topic),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return err
	default:
		r.observe(topic, OutcomeFailed)
		r.logger.Error("failed to relay event",
			zap.String("topic", topic),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return err
	}
}

func (r *EventRelay) observe(topic, outcome string) {
	if r.metrics != nil {
		r.metrics.ObserveKafkaPublish(topic, outcome)
	}
}

var _ shared.EventHandler = (*EventRelay)(nil)
