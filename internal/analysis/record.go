package analysis

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cloud identifies the provider a resource belongs to.
type Cloud string

const (
	CloudAWS   Cloud = "aws"
	CloudAzure Cloud = "azure"
	CloudGCP   Cloud = "gcp"
)

// ResourceType enumerates the resource classes the pipeline understands.
type ResourceType string

const (
	TypeEC2     ResourceType = "ec2"
	TypeVPC     ResourceType = "vpc"
	TypeS3      ResourceType = "s3"
	TypeVM      ResourceType = "vm"
	TypeStorage ResourceType = "storage"
)

// CanonicalCloud lowercases a cloud name.
func CanonicalCloud(s string) Cloud {
	return Cloud(strings.ToLower(strings.TrimSpace(s)))
}

// CanonicalType folds the accepted aliases onto their canonical resource
// type. Unknown names pass through unchanged; the dataset catalog rejects
// them before any data is fetched.
func CanonicalType(s string) ResourceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vm", "virtualmachine", "virtual_machine":
		return TypeVM
	case "storage", "storageaccount", "storage_account":
		return TypeStorage
	default:
		return ResourceType(strings.ToLower(strings.TrimSpace(s)))
	}
}

// Window is the span over which metrics and cost were aggregated.
type Window struct {
	Start        time.Time
	End          time.Time
	DurationDays int
}

// NewWindow derives the day count from the span. Sub-day spans count as one
// day; a zero-length span keeps zero days so cost extrapolation stays at
// zero instead of dividing.
func NewWindow(start, end time.Time) Window {
	w := Window{Start: start, End: end}
	if !end.After(start) {
		return w
	}
	days := int(math.Round(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	w.DurationDays = days
	return w
}

// MetricTriple summarises one named metric over the window.
type MetricTriple struct {
	Avg   float64
	Max   float64
	MaxAt string
}

// RawUtilizationRow is one cost-joined row as fetched from the warehouse.
// Derived metrics arrive as a single JSON blob keyed "<metric>_Avg",
// "<metric>_Max", "<metric>_MaxDate"; the Normalizer flattens it.
type RawUtilizationRow struct {
	ResourceID          string
	ResourceName        string
	Region              string
	AccountID           string
	SKU                 string
	AccessTier          string
	BilledCost          decimal.Decimal
	ConsumedQuantity    decimal.Decimal
	ContractedUnitPrice decimal.Decimal
	PricingUnit         string
	MetricsBlob         []byte
	Details             map[string]string
}

// UtilizationRecord is the canonical shape of one resource over one
// analysis window. Built once by the Normalizer, never mutated afterwards.
type UtilizationRecord struct {
	ResourceID          string
	ResourceName        string
	ResourceType        ResourceType
	Cloud               Cloud
	Region              string
	AccountID           string
	SKU                 string
	AccessTier          string
	Metrics             map[string]MetricTriple
	BilledCost          decimal.Decimal
	ConsumedQuantity    decimal.Decimal
	ContractedUnitPrice decimal.Decimal
	PricingUnit         string
	Window              Window
	Details             map[string]string
}

// Metric returns the named triple, or a zero triple when the metric was not
// observed. The zero default is the single missing-metric policy for every
// consumer.
func (u UtilizationRecord) Metric(name string) MetricTriple {
	if t, ok := u.Metrics[name]; ok {
		return t
	}
	return MetricTriple{MaxAt: u.Window.End.Format("2006-01-02")}
}
