package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RentWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	recs   []*models.EvaluationRecord
	err    error
	closed bool
}

func (s *memStore) Init(context.Context) error { return nil }
func (s *memStore) Store(_ context.Context, r *models.EvaluationRecord) error {
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, r)
	return nil
}
func (s *memStore) StoreBatch(ctx context.Context, rs []*models.EvaluationRecord) error {
	for _, r := range rs {
		if err := s.Store(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
func (s *memStore) Query(_ context.Context, from, to time.Time, limit int) ([]*models.EvaluationRecord, error) {
	var out []*models.EvaluationRecord
	for i := len(s.recs) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.recs[i]
		if !r.EvaluatedAt.Before(from) && !r.EvaluatedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { s.closed = true; return nil }

type memPublisher struct {
	recs []*models.EvaluationRecord
}

func (p *memPublisher) Publish(_ context.Context, r *models.EvaluationRecord) error {
	p.recs = append(p.recs, r)
	return nil
}
func (p *memPublisher) PublishBatch(_ context.Context, rs []*models.EvaluationRecord) error {
	p.recs = append(p.recs, rs...)
	return nil
}
func (p *memPublisher) Close() error { return nil }

func sampleResult() models.EvaluationResult {
	return models.EvaluationResult{
		PredictedPrice:       2000,
		ActualPrice:          2500,
		Label:                models.LabelOverpriced,
		Difference:           500,
		Ratio:                1.25,
		PercentageDifference: 25,
		SchemaVersion:        "v1",
	}
}

func TestNewRecordCopiesResult(t *testing.T) {
	r := NewEvaluationRecorder(nil, nil, nil, "none", nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	rec := r.NewRecord("api", "listing-9", sampleResult())
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "listing-9", rec.ListingID)
	assert.Equal(t, "api", rec.Source)
	assert.Equal(t, "overpriced", rec.Label)
	assert.Equal(t, 1.25, rec.Ratio)
	assert.Equal(t, fixed, rec.EvaluatedAt)

	other := r.NewRecord("api", "", sampleResult())
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestRecordRoutesByBackend(t *testing.T) {
	ctx := context.Background()

	store := &memStore{}
	m := newFakeMetrics()
	r := NewEvaluationRecorder(nil, store, m, "clickhouse", nil)
	require.NoError(t, r.Record(ctx, r.NewRecord("api", "", sampleResult())))
	assert.Len(t, store.recs, 1)
	assert.Equal(t, 1, m.recorded["clickhouse"])

	pub := &memPublisher{}
	m = newFakeMetrics()
	r = NewEvaluationRecorder(pub, nil, m, "kafka", nil)
	recs := []*models.EvaluationRecord{r.NewRecord("kafka", "a", sampleResult()), r.NewRecord("kafka", "b", sampleResult())}
	require.NoError(t, r.RecordBatch(ctx, recs))
	assert.Len(t, pub.recs, 2)
	assert.Equal(t, 2, m.recorded["kafka"])
}

func TestRecordNoneIsNoop(t *testing.T) {
	m := newFakeMetrics()
	r := NewEvaluationRecorder(nil, nil, m, "", nil)
	assert.False(t, r.Enabled())
	require.NoError(t, r.Record(context.Background(), r.NewRecord("api", "", sampleResult())))
	assert.Empty(t, m.recorded)
}

func TestRecordFailureIsCounted(t *testing.T) {
	store := &memStore{err: errors.New("connection refused")}
	m := newFakeMetrics()
	r := NewEvaluationRecorder(nil, store, m, "postgres", nil)

	err := r.Record(context.Background(), r.NewRecord("api", "", sampleResult()))
	require.Error(t, err)
	assert.Equal(t, 1, m.errors["record"])
	assert.Empty(t, m.recorded)

	assert.Error(t, NewEvaluationRecorder(nil, nil, m, "mongo", nil).Record(context.Background(), &models.EvaluationRecord{}))
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := NewEvaluationRecorder(nil, store, nil, "postgres", nil)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		i := i
		r.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		require.NoError(t, r.Record(ctx, r.NewRecord("api", "", sampleResult())))
	}

	recs, err := r.Query(ctx, base, base.Add(90*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].EvaluatedAt.After(recs[1].EvaluatedAt))

	_, err = NewEvaluationRecorder(&memPublisher{}, nil, nil, "kafka", nil).Query(ctx, base, base, 1)
	assert.ErrorIs(t, err, ErrQueryUnsupported)
}

func TestCloseClosesStore(t *testing.T) {
	store := &memStore{}
	NewEvaluationRecorder(nil, store, nil, "clickhouse", nil).Close()
	assert.True(t, store.closed)
}
