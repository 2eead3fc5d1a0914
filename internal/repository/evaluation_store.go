package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RentWise/internal/domain/models"
	"RentWise/internal/domain/repository"
)

const evaluationColumns = "id, listing_id, source, schema_version, predicted_price, actual_price, label, difference, ratio, percentage_difference, evaluated_at"

const evaluationArity = 11

// Rows per multi-row INSERT.
const insertChunkSize = 2000

func evaluationArgs(r *models.EvaluationRecord) []interface{} {
	return []interface{}{
		r.ID,
		r.ListingID,
		r.Source,
		r.SchemaVersion,
		r.PredictedPrice,
		r.ActualPrice,
		r.Label,
		r.Difference,
		r.Ratio,
		r.PercentageDifference,
		r.EvaluatedAt.UTC(),
	}
}

func scanEvaluations(rows *sql.Rows) ([]*models.EvaluationRecord, error) {
	defer rows.Close()

	var out []*models.EvaluationRecord
	for rows.Next() {
		var r models.EvaluationRecord
		if err := rows.Scan(
			&r.ID,
			&r.ListingID,
			&r.Source,
			&r.SchemaVersion,
			&r.PredictedPrice,
			&r.ActualPrice,
			&r.Label,
			&r.Difference,
			&r.Ratio,
			&r.PercentageDifference,
			&r.EvaluatedAt,
		); err != nil {
			return nil, err
		}
		r.EvaluatedAt = r.EvaluatedAt.UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// insertStatement builds a multi-row INSERT. next yields each placeholder
// so ClickHouse (?) and Postgres ($n) share the builder.
func insertStatement(table string, recs []*models.EvaluationRecord, next func() string) (string, []interface{}) {
	values := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*evaluationArity)
	for _, r := range recs {
		if r == nil || r.ID == "" {
			continue
		}
		ph := make([]string, evaluationArity)
		for i := range ph {
			ph[i] = next()
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args, evaluationArgs(r)...)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, evaluationColumns, strings.Join(values, ", "))
	return q, args
}

func chunks(recs []*models.EvaluationRecord, size int, fn func([]*models.EvaluationRecord) error) error {
	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		if err := fn(recs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ClickHouseEvaluationStore implements EvaluationStore for ClickHouse.
type ClickHouseEvaluationStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseEvaluationStore creates ClickHouse storage. The connection
// pool is owned by pkg/clickhouse.Client.
func NewClickHouseEvaluationStore(db *sql.DB, table string) *ClickHouseEvaluationStore {
	if table == "" {
		table = "evaluations"
	}
	return &ClickHouseEvaluationStore{db: db, table: table}
}

func (s *ClickHouseEvaluationStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	listing_id String,
	source LowCardinality(String),
	schema_version LowCardinality(String),
	predicted_price Float64,
	actual_price Float64,
	label LowCardinality(String),
	difference Float64,
	ratio Float64,
	percentage_difference Float64,
	evaluated_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
PARTITION BY toYYYYMM(evaluated_at)
ORDER BY (evaluated_at, id)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("clickhouse: init %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseEvaluationStore) Store(ctx context.Context, r *models.EvaluationRecord) error {
	return s.StoreBatch(ctx, []*models.EvaluationRecord{r})
}

func (s *ClickHouseEvaluationStore) StoreBatch(ctx context.Context, recs []*models.EvaluationRecord) error {
	return chunks(recs, insertChunkSize, func(batch []*models.EvaluationRecord) error {
		q, args := insertStatement(s.table, batch, func() string { return "?" })
		if q == "" {
			return nil
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("clickhouse: insert: %w", err)
		}
		return nil
	})
}

func (s *ClickHouseEvaluationStore) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.EvaluationRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE evaluated_at >= ? AND evaluated_at <= ? ORDER BY evaluated_at DESC LIMIT ?", evaluationColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: query: %w", err)
	}
	return scanEvaluations(rows)
}

func (s *ClickHouseEvaluationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseEvaluationStore) Close() error {
	return nil // managed by pkg/clickhouse
}

// PostgresEvaluationStore implements EvaluationStore for PostgreSQL.
type PostgresEvaluationStore struct {
	db    *sql.DB
	table string
}

func NewPostgresEvaluationStore(db *sql.DB, table string) *PostgresEvaluationStore {
	if table == "" {
		table = "evaluations"
	}
	return &PostgresEvaluationStore{db: db, table: table}
}

// Init creates the table and its time index when missing.
func (s *PostgresEvaluationStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id                    UUID PRIMARY KEY,
			listing_id            TEXT             NOT NULL DEFAULT '',
			source                VARCHAR(32)      NOT NULL,
			schema_version        VARCHAR(64)      NOT NULL,
			predicted_price       DOUBLE PRECISION NOT NULL,
			actual_price          DOUBLE PRECISION NOT NULL,
			label                 VARCHAR(16)      NOT NULL,
			difference            DOUBLE PRECISION NOT NULL,
			ratio                 DOUBLE PRECISION NOT NULL,
			percentage_difference DOUBLE PRECISION NOT NULL,
			evaluated_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_evaluated_at ON %[1]s(evaluated_at);
	`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("postgres: migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresEvaluationStore) Store(ctx context.Context, r *models.EvaluationRecord) error {
	return s.StoreBatch(ctx, []*models.EvaluationRecord{r})
}

// StoreBatch inserts in chunks; Postgres caps a statement at 65535 parameters.
func (s *PostgresEvaluationStore) StoreBatch(ctx context.Context, recs []*models.EvaluationRecord) error {
	return chunks(recs, 500, func(batch []*models.EvaluationRecord) error {
		n := 0
		q, args := insertStatement(s.table, batch, func() string {
			n++
			return fmt.Sprintf("$%d", n)
		})
		if q == "" {
			return nil
		}
		q += " ON CONFLICT (id) DO NOTHING"
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("postgres: insert: %w", err)
		}
		return nil
	})
}

func (s *PostgresEvaluationStore) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.EvaluationRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE evaluated_at >= $1 AND evaluated_at <= $2 ORDER BY evaluated_at DESC LIMIT $3", evaluationColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	return scanEvaluations(rows)
}

func (s *PostgresEvaluationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresEvaluationStore) Close() error {
	return nil // managed by pkg/postgres
}

var (
	_ repository.EvaluationStore = (*ClickHouseEvaluationStore)(nil)
	_ repository.EvaluationStore = (*PostgresEvaluationStore)(nil)
)
