package repository

import (
	"context"
	"time"

	"RentWise/internal/domain/models"
)

// EvaluationStore persists evaluations for later inspection.
type EvaluationStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, r *models.EvaluationRecord) error
	StoreBatch(ctx context.Context, rs []*models.EvaluationRecord) error
	Query(ctx context.Context, from, to time.Time, limit int) ([]*models.EvaluationRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// EvaluationPublisher emits evaluations to downstream consumers.
type EvaluationPublisher interface {
	Publish(ctx context.Context, r *models.EvaluationRecord) error
	PublishBatch(ctx context.Context, rs []*models.EvaluationRecord) error
	Close() error
}

// DatasetSource reads raw listings for the offline cleaning pass.
type DatasetSource interface {
	ReadRaw(ctx context.Context) (models.RawDataset, error)
}

// DatasetSink writes the canonical table produced by the cleaning pass.
type DatasetSink interface {
	WriteCanonical(ctx context.Context, t models.CanonicalTable) error
}

type Metrics interface {
	RecordPrediction(op string)
	RecordLabel(label string)
	RecordError(kind string)
	RecordRecorded(backend string)
	RecordPredictedPrice(price float64)
	RecordLatency(op string, seconds float64)
}

// SchemaWriter persists the schema pair produced by the cleaning pass.
type SchemaWriter interface {
	WriteSchema(ctx context.Context, reg models.SchemaRegistry) error
}
