package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cloud-cost-advisor/internal/analysis"
)

// fetchUtilizationSQL is rendered against the sanitized schema-qualified
// table name. An empty $3 disables the resource filter. Rows come back most
// expensive first, which also fixes which row wins when a single-resource
// request unexpectedly matches several.
const fetchUtilizationSQL = `SELECT
        resource_id,
        resource_name,
        region,
        account_id,
        sku,
        access_tier,
        billed_cost,
        consumed_quantity,
        contracted_unit_price,
        pricing_unit,
        metrics_json,
        details
    FROM %s
    WHERE window_start >= $1
      AND window_end <= $2
      AND ($3 = '' OR resource_id = $3)
    ORDER BY billed_cost DESC NULLS LAST, resource_id;`

// Store reads utilization datasets from the cost warehouse.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore wires a pgx pool into a warehouse reader.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger.With().Str("component", "warehouse").Logger()}
}

// FetchUtilization returns the cost-joined rows of one dataset within the
// window, optionally narrowed to a single resource id. A query failure is
// returned as-is; the orchestrator wraps it into its fetch error class.
// Zero rows is a valid empty result, not an error.
func (s *Store) FetchUtilization(ctx context.Context, dataset Dataset, schema string, window analysis.Window, resourceID string) ([]analysis.RawUtilizationRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("warehouse pool not configured")
	}

	table := pgx.Identifier{schema, dataset.Table}.Sanitize()
	query := fmt.Sprintf(fetchUtilizationSQL, table)

	rows, err := s.pool.Query(ctx, query, window.Start, window.End, resourceID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dataset.Name, err)
	}
	defer rows.Close()

	var fetched []analysis.RawUtilizationRow
	for rows.Next() {
		row, scanErr := scanUtilizationRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan %s row: %w", dataset.Name, scanErr)
		}
		fetched = append(fetched, row)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("read %s rows: %w", dataset.Name, rows.Err())
	}

	s.logger.Debug().Str("dataset", dataset.Name).Int("rows", len(fetched)).Msg("fetched utilization rows")
	return fetched, nil
}

func scanUtilizationRow(rows pgx.Rows) (analysis.RawUtilizationRow, error) {
	var (
		resourceID   string
		resourceName sql.NullString
		region       sql.NullString
		accountID    sql.NullString
		sku          sql.NullString
		accessTier   sql.NullString
		billedCost   sql.NullString
		consumedQty  sql.NullString
		unitPrice    sql.NullString
		pricingUnit  sql.NullString
		metricsBlob  []byte
		detailsBlob  []byte
	)

	if err := rows.Scan(
		&resourceID,
		&resourceName,
		&region,
		&accountID,
		&sku,
		&accessTier,
		&billedCost,
		&consumedQty,
		&unitPrice,
		&pricingUnit,
		&metricsBlob,
		&detailsBlob,
	); err != nil {
		return analysis.RawUtilizationRow{}, err
	}

	billed, err := parseDecimal(billedCost, "billed_cost")
	if err != nil {
		return analysis.RawUtilizationRow{}, err
	}
	consumed, err := parseDecimal(consumedQty, "consumed_quantity")
	if err != nil {
		return analysis.RawUtilizationRow{}, err
	}
	price, err := parseDecimal(unitPrice, "contracted_unit_price")
	if err != nil {
		return analysis.RawUtilizationRow{}, err
	}

	return analysis.RawUtilizationRow{
		ResourceID:          resourceID,
		ResourceName:        resourceName.String,
		Region:              region.String,
		AccountID:           accountID.String,
		SKU:                 sku.String,
		AccessTier:          accessTier.String,
		BilledCost:          billed,
		ConsumedQuantity:    consumed,
		ContractedUnitPrice: price,
		PricingUnit:         pricingUnit.String,
		MetricsBlob:         metricsBlob,
		Details:             parseDetails(detailsBlob),
	}, nil
}

func parseDecimal(v sql.NullString, column string) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", column, err)
	}
	return d, nil
}

// parseDetails tolerates a missing or unreadable details document; detail
// dimensions only enrich the prompt and never gate a row.
func parseDetails(blob []byte) map[string]string {
	if len(blob) == 0 {
		return nil
	}
	var details map[string]string
	if err := json.Unmarshal(blob, &details); err != nil {
		return nil
	}
	return details
}
