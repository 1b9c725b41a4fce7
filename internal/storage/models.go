package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StoredRecommendation is one persisted recommendation document. Re-running
// a resource overwrites its row; the table never accumulates duplicates for
// the same (resource, type) pair within a schema.
type StoredRecommendation struct {
	ResourceID      string
	ResourceType    string
	Cloud           string
	RunID           string
	Document        json.RawMessage
	ForecastMonthly decimal.Decimal
	ForecastAnnual  decimal.Decimal
	WindowStart     time.Time
	WindowEnd       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
