package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cloud-cost-advisor/internal/ingest"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

// The schema placeholder is rendered with a pgx-sanitized identifier; only
// the data values travel as query parameters.
const (
	upsertRecommendationSQL = `INSERT INTO %s (
        resource_id,
        resource_type,
        cloud,
        run_id,
        document,
        forecast_monthly,
        forecast_annual,
        window_start,
        window_end,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    ON CONFLICT (resource_id, resource_type) DO UPDATE
    SET
        cloud            = EXCLUDED.cloud,
        run_id           = EXCLUDED.run_id,
        document         = EXCLUDED.document,
        forecast_monthly = EXCLUDED.forecast_monthly,
        forecast_annual  = EXCLUDED.forecast_annual,
        window_start     = EXCLUDED.window_start,
        window_end       = EXCLUDED.window_end,
        updated_at       = EXCLUDED.updated_at;`

	listRecommendationsSQL = `SELECT
        resource_id,
        resource_type,
        cloud,
        run_id,
        document,
        forecast_monthly,
        forecast_annual,
        window_start,
        window_end,
        created_at,
        updated_at
    FROM %s
    ORDER BY updated_at DESC
    LIMIT $1;`

	countRecommendationsSQL = `SELECT COUNT(*) FROM %s;`

	existingSampleKeysSQL = `SELECT dedup_key FROM %s;`

	insertSampleSQL = `INSERT INTO %s (
        dedup_key,
        resource_name,
        sample_ts,
        metric_name,
        value,
        unit,
        resource_id,
        account_id
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (dedup_key) DO NOTHING;`
)

const (
	recommendationsTable = "recommendations"
	metricSamplesTable   = "metric_samples"
)

// RecommendationStore persists and lists recommendation documents.
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, schema string, batch []StoredRecommendation) error
	ListRecommendations(ctx context.Context, schema string, limit int) ([]StoredRecommendation, error)
	CountRecommendations(ctx context.Context, schema string) (int64, error)
}

// IngestStore backs idempotent metric-sample ingestion: the existing key
// set feeds the deduplicator, and only the surviving samples are inserted.
type IngestStore interface {
	ExistingKeys(ctx context.Context, schema string) (map[string]struct{}, error)
	InsertSamples(ctx context.Context, schema string, samples []ingest.MetricSample) (int, error)
}

// Store aggregates access to recommendations and ingested samples.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

func tableIn(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// SaveRecommendations upserts a batch of recommendation documents within a
// single transaction, so a partially persisted run never survives.
func (s *Store) SaveRecommendations(ctx context.Context, schema string, batch []StoredRecommendation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	query := fmt.Sprintf(upsertRecommendationSQL, tableIn(schema, recommendationsTable))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save recommendations: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, rec := range batch {
		if _, execErr := tx.Exec(ctx, query,
			rec.ResourceID,
			rec.ResourceType,
			rec.Cloud,
			rec.RunID,
			[]byte(rec.Document),
			rec.ForecastMonthly.String(),
			rec.ForecastAnnual.String(),
			rec.WindowStart,
			rec.WindowEnd,
			now,
		); execErr != nil {
			return fmt.Errorf("upsert recommendation %s: %w", rec.ResourceID, execErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save recommendations: %w", err)
	}
	return nil
}

// ListRecommendations lists the most recently updated recommendations.
func (s *Store) ListRecommendations(ctx context.Context, schema string, limit int) ([]StoredRecommendation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(listRecommendationsSQL, tableIn(schema, recommendationsTable))
	rows, queryErr := pool.Query(ctx, query, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recommendations: %w", queryErr)
	}
	defer rows.Close()

	recs := make([]StoredRecommendation, 0, limit)
	for rows.Next() {
		rec, scanErr := scanRecommendation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		recs = append(recs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return recs, nil
}

// CountRecommendations counts stored recommendations in a schema.
func (s *Store) CountRecommendations(ctx context.Context, schema string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	query := fmt.Sprintf(countRecommendationsSQL, tableIn(schema, recommendationsTable))
	if scanErr := pool.QueryRow(ctx, query).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count recommendations: %w", scanErr)
	}
	return count, nil
}

// ExistingKeys loads the dedup keys already persisted in a schema.
func (s *Store) ExistingKeys(ctx context.Context, schema string) (map[string]struct{}, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(existingSampleKeysSQL, tableIn(schema, metricSamplesTable))
	rows, queryErr := pool.Query(ctx, query)
	if queryErr != nil {
		return nil, fmt.Errorf("list existing sample keys: %w", queryErr)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return keys, nil
}

// InsertSamples persists pre-filtered metric samples and reports how many
// rows landed. The dedup key doubles as the conflict target, so a racing
// writer cannot duplicate a sample either.
func (s *Store) InsertSamples(ctx context.Context, schema string, samples []ingest.MetricSample) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(insertSampleSQL, tableIn(schema, metricSamplesTable))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert samples: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, sample := range samples {
		tag, execErr := tx.Exec(ctx, query,
			sample.DedupKey(),
			sample.ResourceName,
			sample.Timestamp,
			sample.MetricName,
			sample.Value,
			sample.Unit,
			sample.ResourceID,
			sample.AccountID,
		)
		if execErr != nil {
			return 0, fmt.Errorf("insert sample %s/%s: %w", sample.ResourceName, sample.MetricName, execErr)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert samples: %w", err)
	}
	return inserted, nil
}

func scanRecommendation(rows pgx.Rows) (StoredRecommendation, error) {
	var (
		rec         StoredRecommendation
		monthlyStr  string
		annualStr   string
		document    []byte
		windowStart time.Time
		windowEnd   time.Time
	)

	if err := rows.Scan(
		&rec.ResourceID,
		&rec.ResourceType,
		&rec.Cloud,
		&rec.RunID,
		&document,
		&monthlyStr,
		&annualStr,
		&windowStart,
		&windowEnd,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return StoredRecommendation{}, err
	}

	monthly, err := decimal.NewFromString(monthlyStr)
	if err != nil {
		return StoredRecommendation{}, fmt.Errorf("parse forecast monthly: %w", err)
	}
	annual, err := decimal.NewFromString(annualStr)
	if err != nil {
		return StoredRecommendation{}, fmt.Errorf("parse forecast annual: %w", err)
	}

	rec.Document = document
	rec.ForecastMonthly = monthly
	rec.ForecastAnnual = annual
	rec.WindowStart = windowStart
	rec.WindowEnd = windowEnd
	return rec, nil
}

var _ RecommendationStore = (*Store)(nil)
var _ IngestStore = (*Store)(nil)
