package repository

import (
	"context"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	pkgkafka "BrentPulse/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPhasePublisher implements PhasePublisher for Kafka. Events are keyed
// by symbol so one symbol's phases stay ordered within a partition.
type KafkaPhasePublisher struct {
	producer batchProducer
	topic    string
}

// NewKafkaPhasePublisher creates Kafka publisher.
func NewKafkaPhasePublisher(producer *pkgkafka.Producer, topic string) *KafkaPhasePublisher {
	return &KafkaPhasePublisher{producer: producer, topic: topic}
}

func (p *KafkaPhasePublisher) PublishPhases(ctx context.Context, events []models.PhaseEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(e.Symbol),
			Value:   e,
			Headers: map[string]string{"event_type": e.Type, "event_id": e.ID},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPhasePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPhasePublisher drops events; used when no broker is configured.
type NopPhasePublisher struct{}

func (NopPhasePublisher) PublishPhases(context.Context, []models.PhaseEvent) error { return nil }
func (NopPhasePublisher) Close() error                                            { return nil }

var (
	_ domrepo.PhasePublisher = (*KafkaPhasePublisher)(nil)
	_ domrepo.PhasePublisher = NopPhasePublisher{}
)
