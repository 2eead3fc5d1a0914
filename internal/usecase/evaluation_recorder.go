package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RentWise/internal/domain/models"
	drepo "RentWise/internal/domain/repository"
	applogger "RentWise/pkg/logger"

	"github.com/google/uuid"
)

// ErrQueryUnsupported is returned by Query when the configured backend is not a store.
var ErrQueryUnsupported = errors.New("evaluation history is not available for this backend")

// EvaluationRecorder routes evaluation records to the configured backend.
type EvaluationRecorder struct {
	pub     drepo.EvaluationPublisher
	store   drepo.EvaluationStore
	metrics drepo.Metrics
	backend string
	logger  *applogger.Logger
	now     func() time.Time
}

// NewEvaluationRecorder creates a recorder. backend is one of none, kafka,
// clickhouse or postgres; pub and store may be nil when unused.
func NewEvaluationRecorder(
	pub drepo.EvaluationPublisher,
	store drepo.EvaluationStore,
	metrics drepo.Metrics,
	backend string,
	logger *applogger.Logger,
) *EvaluationRecorder {
	if logger == nil {
		logger = applogger.Nop()
	}
	if backend == "" {
		backend = "none"
	}
	return &EvaluationRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Backend returns the configured backend name.
func (r *EvaluationRecorder) Backend() string { return r.backend }

// Enabled reports whether records go anywhere.
func (r *EvaluationRecorder) Enabled() bool { return r.backend != "none" }

// NewRecord stamps an evaluation result with an id and the current time.
func (r *EvaluationRecorder) NewRecord(source, listingID string, res models.EvaluationResult) *models.EvaluationRecord {
	return &models.EvaluationRecord{
		ID:                   uuid.NewString(),
		ListingID:            listingID,
		Source:               source,
		SchemaVersion:        res.SchemaVersion,
		PredictedPrice:       res.PredictedPrice,
		ActualPrice:          res.ActualPrice,
		Label:                res.Label.String(),
		Difference:           res.Difference,
		Ratio:                res.Ratio,
		PercentageDifference: res.PercentageDifference,
		EvaluatedAt:          r.now().UTC(),
	}
}

// Record writes one evaluation.
func (r *EvaluationRecorder) Record(ctx context.Context, rec *models.EvaluationRecord) error {
	if rec == nil {
		return fmt.Errorf("evaluation record is nil")
	}

	start := time.Now()
	var err error

	switch r.backend {
	case "none":
		return nil
	case "kafka":
		err = r.pub.Publish(ctx, rec)
	case "clickhouse", "postgres":
		err = r.store.Store(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.record(func(m drepo.Metrics) { m.RecordError("record") })
		return fmt.Errorf("record evaluation: %w", err)
	}

	r.record(func(m drepo.Metrics) {
		m.RecordRecorded(r.backend)
		m.RecordLatency("record", time.Since(start).Seconds())
	})
	return nil
}

// RecordBatch writes several evaluations in one round-trip.
func (r *EvaluationRecorder) RecordBatch(ctx context.Context, recs []*models.EvaluationRecord) error {
	if len(recs) == 0 || r.backend == "none" {
		return nil
	}

	start := time.Now()
	var err error

	switch r.backend {
	case "kafka":
		err = r.pub.PublishBatch(ctx, recs)
	case "clickhouse", "postgres":
		err = r.store.StoreBatch(ctx, recs)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.record(func(m drepo.Metrics) { m.RecordError("record_batch") })
		return fmt.Errorf("record batch: %w", err)
	}

	r.record(func(m drepo.Metrics) {
		for range recs {
			m.RecordRecorded(r.backend)
		}
		m.RecordLatency("record_batch", time.Since(start).Seconds())
	})
	return nil
}

// Query lists stored evaluations newest first.
func (r *EvaluationRecorder) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.EvaluationRecord, error) {
	if r.store == nil || (r.backend != "clickhouse" && r.backend != "postgres") {
		return nil, ErrQueryUnsupported
	}
	recs, err := r.store.Query(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	return recs, nil
}

// Health pings the store when there is one.
func (r *EvaluationRecorder) Health(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Health(ctx)
}

// Close closes underlying resources if available.
func (r *EvaluationRecorder) Close() {
	if r.pub != nil {
		if err := r.pub.Close(); err != nil {
			r.logger.Warn("close publisher", applogger.Error(err))
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("close store", applogger.Error(err))
		}
	}
}

func (r *EvaluationRecorder) record(fn func(drepo.Metrics)) {
	if r.metrics != nil {
		fn(r.metrics)
	}
}
