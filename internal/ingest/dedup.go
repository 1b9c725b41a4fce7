package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MetricSample is one raw metric observation bound for the warehouse.
type MetricSample struct {
	ResourceName string
	Timestamp    string
	MetricName   string
	Value        float64
	Unit         string
	ResourceID   string
	AccountID    string
}

// Key hashes an ordered projection of identity columns. Equal projections
// always produce equal keys; the function carries no randomness and no
// clock dependency.
func Key(columns ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(columns, "|")))
	return hex.EncodeToString(sum[:])
}

// DedupKey projects the sample's identity columns in their fixed order.
// The order is part of the persisted contract: changing it changes every
// key and breaks idempotent re-ingestion against existing data.
func (s MetricSample) DedupKey() string {
	return Key(s.ResourceName, s.Timestamp, s.MetricName, s.ResourceID, s.AccountID)
}

// FilterNew returns the samples whose key is not already persisted,
// preserving input order. The existing set is supplied by the store and is
// only read here.
func FilterNew(samples []MetricSample, existing map[string]struct{}) []MetricSample {
	fresh := make([]MetricSample, 0, len(samples))
	for _, s := range samples {
		if _, seen := existing[s.DedupKey()]; seen {
			continue
		}
		fresh = append(fresh, s)
	}
	return fresh
}
