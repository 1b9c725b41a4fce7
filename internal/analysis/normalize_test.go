package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testWindow() Window {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	return NewWindow(start, end)
}

func TestNormalizeMetricRoundTrip(t *testing.T) {
	raw := RawUtilizationRow{
		ResourceID:  "res-1",
		MetricsBlob: []byte(`{"CPU_Avg":10,"CPU_Max":90,"CPU_MaxDate":"2025-01-01"}`),
	}
	rec := Normalize(raw, CloudAzure, TypeVM, testWindow())

	got, ok := rec.Metrics["CPU"]
	if !ok {
		t.Fatalf("expected CPU metric, got %#v", rec.Metrics)
	}
	if got.Avg != 10 || got.Max != 90 || got.MaxAt != "2025-01-01" {
		t.Fatalf("unexpected triple %#v", got)
	}
}

func TestNormalizeMissingFieldsDefault(t *testing.T) {
	raw := RawUtilizationRow{MetricsBlob: []byte(`{"CPU_Avg":12.5}`)}
	rec := Normalize(raw, CloudAzure, TypeVM, testWindow())

	got := rec.Metrics["CPU"]
	if got.Avg != 12.5 {
		t.Fatalf("avg should survive, got %v", got.Avg)
	}
	if got.Max != 0 {
		t.Fatalf("missing max should default to 0, got %v", got.Max)
	}
	if got.MaxAt != "2025-01-31" {
		t.Fatalf("missing max date should fall back to window end, got %q", got.MaxAt)
	}
}

func TestNormalizeEmptyAndUnreadableBlobs(t *testing.T) {
	for _, blob := range [][]byte{nil, {}, []byte("null"), []byte("{broken")} {
		rec := Normalize(RawUtilizationRow{MetricsBlob: blob}, CloudAWS, TypeEC2, testWindow())
		if len(rec.Metrics) != 0 {
			t.Fatalf("blob %q should normalize to no metrics, got %#v", blob, rec.Metrics)
		}
	}
}

func TestNormalizeCoercesStringNumbers(t *testing.T) {
	raw := RawUtilizationRow{MetricsBlob: []byte(`{"Transactions (count)_Avg":"1520.5","Transactions (count)_Max":true}`)}
	rec := Normalize(raw, CloudAzure, TypeStorage, testWindow())

	got := rec.Metrics["Transactions (count)"]
	if got.Avg != 1520.5 {
		t.Fatalf("string number should coerce, got %v", got.Avg)
	}
	if got.Max != 0 {
		t.Fatalf("non-numeric max should coerce to 0, got %v", got.Max)
	}
}

func TestNormalizeCarriesRowFields(t *testing.T) {
	billed := decimal.NewFromFloat(42.5)
	raw := RawUtilizationRow{
		ResourceID:   "res-9",
		ResourceName: "db-host",
		Region:       "westeurope",
		AccountID:    "sub-1",
		SKU:          "Standard_D2s_v3",
		BilledCost:   billed,
		Details:      map[string]string{"vm_size": "D2s_v3"},
	}
	rec := Normalize(raw, CloudAzure, TypeVM, testWindow())

	if rec.ResourceID != "res-9" || rec.ResourceName != "db-host" || rec.AccountID != "sub-1" {
		t.Fatalf("identity fields not carried: %#v", rec)
	}
	if !rec.BilledCost.Equal(billed) {
		t.Fatalf("billed cost not carried: %s", rec.BilledCost)
	}
	if rec.Cloud != CloudAzure || rec.ResourceType != TypeVM {
		t.Fatalf("cloud/type not set: %#v", rec)
	}
	if rec.Window.DurationDays != 30 {
		t.Fatalf("window days = %d, want 30", rec.Window.DurationDays)
	}
}

func TestMetricDefaultTriple(t *testing.T) {
	rec := Normalize(RawUtilizationRow{}, CloudAWS, TypeEC2, testWindow())
	got := rec.Metric("CPUUtilization")
	if got.Avg != 0 || got.Max != 0 {
		t.Fatalf("unobserved metric should be zero, got %#v", got)
	}
	if got.MaxAt != "2025-01-31" {
		t.Fatalf("unobserved metric max date should be window end, got %q", got.MaxAt)
	}
}
