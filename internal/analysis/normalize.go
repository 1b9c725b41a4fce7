package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	avgSuffix     = "_Avg"
	maxSuffix     = "_Max"
	maxDateSuffix = "_MaxDate"
)

// Normalize builds the canonical UtilizationRecord from a raw warehouse
// row. Flattening the metric blob never fails: a missing, empty, or
// unreadable blob produces an empty metrics map, missing avg/max fields
// default to zero, and a missing max-date falls back to the window end.
func Normalize(raw RawUtilizationRow, cloud Cloud, resourceType ResourceType, window Window) UtilizationRecord {
	return UtilizationRecord{
		ResourceID:          raw.ResourceID,
		ResourceName:        raw.ResourceName,
		ResourceType:        resourceType,
		Cloud:               cloud,
		Region:              raw.Region,
		AccountID:           raw.AccountID,
		SKU:                 raw.SKU,
		AccessTier:          raw.AccessTier,
		Metrics:             flattenMetrics(raw.MetricsBlob, window.End.Format("2006-01-02")),
		BilledCost:          raw.BilledCost,
		ConsumedQuantity:    raw.ConsumedQuantity,
		ContractedUnitPrice: raw.ContractedUnitPrice,
		PricingUnit:         raw.PricingUnit,
		Window:              window,
		Details:             raw.Details,
	}
}

func flattenMetrics(blob []byte, fallbackMaxAt string) map[string]MetricTriple {
	metrics := map[string]MetricTriple{}
	if len(blob) == 0 {
		return metrics
	}

	var fields map[string]any
	if err := json.Unmarshal(blob, &fields); err != nil {
		return metrics
	}

	triples := map[string]*MetricTriple{}
	triple := func(name string) *MetricTriple {
		if t, ok := triples[name]; ok {
			return t
		}
		t := &MetricTriple{MaxAt: fallbackMaxAt}
		triples[name] = t
		return t
	}

	for key, value := range fields {
		switch {
		case strings.HasSuffix(key, avgSuffix):
			triple(strings.TrimSuffix(key, avgSuffix)).Avg = toFloat(value)
		case strings.HasSuffix(key, maxSuffix):
			triple(strings.TrimSuffix(key, maxSuffix)).Max = toFloat(value)
		case strings.HasSuffix(key, maxDateSuffix):
			if s := toString(value); s != "" {
				triple(strings.TrimSuffix(key, maxDateSuffix)).MaxAt = s
			}
		}
	}

	for name, t := range triples {
		if name == "" {
			continue
		}
		metrics[name] = *t
	}
	return metrics
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
