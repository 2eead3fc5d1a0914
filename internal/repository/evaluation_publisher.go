package repository

import (
	"context"

	"RentWise/internal/domain/models"
	"RentWise/internal/domain/repository"
	pkgkafka "RentWise/pkg/kafka"
)

// KafkaEvaluationPublisher implements EvaluationPublisher for Kafka.
// Records are keyed by id.
type KafkaEvaluationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEvaluationPublisher creates a Kafka publisher.
func NewKafkaEvaluationPublisher(producer *pkgkafka.Producer, topic string) *KafkaEvaluationPublisher {
	return &KafkaEvaluationPublisher{producer: producer, topic: topic}
}

func (p *KafkaEvaluationPublisher) Publish(ctx context.Context, r *models.EvaluationRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.ID), r)
}

func (p *KafkaEvaluationPublisher) PublishBatch(ctx context.Context, recs []*models.EvaluationRecord) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i, r := range recs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.ID), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close is a no-op: the producer is shared with the log collector and closed by DI cleanup.
func (p *KafkaEvaluationPublisher) Close() error {
	return nil
}

var _ repository.EvaluationPublisher = (*KafkaEvaluationPublisher)(nil)
