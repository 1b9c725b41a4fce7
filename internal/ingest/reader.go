package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var sampleColumns = []string{
	"resource_name", "timestamp", "metric_name", "value", "unit", "resource_id", "account_id",
}

// ReadSamplesCSV parses metric samples from a CSV stream. The header row
// names the columns; order is free but every column in sampleColumns must
// be present. Rows with an unparseable value fail the whole read so a bad
// file is rejected before any key is computed.
func ReadSamplesCSV(r io.Reader) ([]MetricSample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range sampleColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", col)
		}
	}

	var samples []MetricSample
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[index["value"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse value at line %d: %w", line, err)
		}

		samples = append(samples, MetricSample{
			ResourceName: row[index["resource_name"]],
			Timestamp:    row[index["timestamp"]],
			MetricName:   row[index["metric_name"]],
			Value:        value,
			Unit:         row[index["unit"]],
			ResourceID:   row[index["resource_id"]],
			AccountID:    row[index["account_id"]],
		})
	}

	return samples, nil
}
