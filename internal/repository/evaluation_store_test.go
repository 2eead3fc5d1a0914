package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"RentWise/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evaluatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func evaluation(id string) *models.EvaluationRecord {
	return &models.EvaluationRecord{
		ID:                   id,
		ListingID:            "L-" + id,
		Source:               "api",
		SchemaVersion:        "v1",
		PredictedPrice:       2000,
		ActualPrice:          2500,
		Label:                "overpriced",
		Difference:           500,
		Ratio:                1.25,
		PercentageDifference: 25,
		EvaluatedAt:          evaluatedAt,
	}
}

func evaluationRows() *sqlmock.Rows {
	cols := strings.Split(evaluationColumns, ", ")
	return sqlmock.NewRows(cols).
		AddRow("b", "L-b", "kafka", "v1", 1800.0, 1500.0, "underpriced", -300.0, 0.8333, -16.67, evaluatedAt.Add(time.Minute)).
		AddRow("a", "L-a", "api", "v1", 2000.0, 2500.0, "overpriced", 500.0, 1.25, 25.0, evaluatedAt)
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestClickHouseStoreBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewClickHouseEvaluationStore(db, "rentwise.evaluations")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rentwise.evaluations (" + evaluationColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?")).
		WithArgs(anyArgs(2 * evaluationArity)...).
		WillReturnResult(sqlmock.NewResult(0, 2))

	// nil and id-less records are skipped
	err = s.StoreBatch(context.Background(), []*models.EvaluationRecord{evaluation("a"), nil, {}, evaluation("b")})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseStoreWrapsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO evaluations").WillReturnError(errors.New("table is read-only"))
	err = NewClickHouseEvaluationStore(db, "").Store(context.Background(), evaluation("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse: insert")
}

func TestClickHouseQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from, to := evaluatedAt.Add(-time.Hour), evaluatedAt.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM evaluations WHERE evaluated_at >= ? AND evaluated_at <= ? ORDER BY evaluated_at DESC LIMIT ?")).
		WithArgs(from, to, 10).
		WillReturnRows(evaluationRows())

	recs, err := NewClickHouseEvaluationStore(db, "").Query(context.Background(), from, to, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID)
	assert.Equal(t, "underpriced", recs[0].Label)
	assert.Equal(t, *evaluation("a"), *recs[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUsesNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11), ($12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22) ON CONFLICT (id) DO NOTHING")).
		WithArgs(anyArgs(2 * evaluationArity)...).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewPostgresEvaluationStore(db, "")
	require.NoError(t, s.StoreBatch(context.Background(), []*models.EvaluationRecord{evaluation("a"), evaluation("b")}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInitAndQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresEvaluationStore(db, "evaluations")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluations").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Init(context.Background()))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE evaluated_at >= $1 AND evaluated_at <= $2 ORDER BY evaluated_at DESC LIMIT $3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 5).
		WillReturnRows(evaluationRows())
	recs, err := s.Query(context.Background(), evaluatedAt.Add(-time.Hour), evaluatedAt.Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewPostgresEvaluationStore(db, "").StoreBatch(context.Background(), nil))
	require.NoError(t, NewClickHouseEvaluationStore(db, "").StoreBatch(context.Background(), []*models.EvaluationRecord{nil}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
