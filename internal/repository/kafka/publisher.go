package kafka

import (
	"context"
	"fmt"

	xkafka "GammaPull/pkg/kafka"

	"GammaPull/internal/domain/models"
)

// Publisher pushes derived records onto a Kafka topic for downstream
// consumers. Messages are keyed by ticker so per-ticker ordering holds
// under the hash balancer.
type Publisher struct {
	producer *xkafka.Producer
	topic    string
}

func NewPublisher(producer *xkafka.Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

type envelope struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

func (p *Publisher) PublishDealerMetrics(ctx context.Context, rec *models.DealerMetricsRecord) error {
	err := p.producer.Publish(ctx, p.topic, []byte(rec.Ticker), envelope{
		Kind:    "dealer_metrics",
		Payload: rec,
	})
	if err != nil {
		return fmt.Errorf("publish dealer metrics %s: %w", rec.Ticker, err)
	}
	return nil
}

func (p *Publisher) PublishSequence(ctx context.Context, seq *models.Sequence) error {
	err := p.producer.Publish(ctx, p.topic, []byte(seq.Ticker), envelope{
		Kind:    "sequence",
		Payload: seq,
	})
	if err != nil {
		return fmt.Errorf("publish sequence %s: %w", seq.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

// NopPublisher satisfies the Publisher interface when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishDealerMetrics(ctx context.Context, rec *models.DealerMetricsRecord) error {
	return nil
}

func (NopPublisher) PublishSequence(ctx context.Context, seq *models.Sequence) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
