package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// scriptedGenerator replays canned responses in order; once exhausted it
// repeats the last one.
type scriptedGenerator struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func generatorRecord() UtilizationRecord {
	raw := RawUtilizationRow{
		ResourceID: "res-1",
		BilledCost: decimal.NewFromInt(100),
	}
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return Normalize(raw, CloudAWS, TypeEC2, NewWindow(start, start.AddDate(0, 0, 10)))
}

func TestGenerateEmptyResponse(t *testing.T) {
	gen := NewGenerator(&scriptedGenerator{responses: []string{"   "}}, GeneratorOptions{}, testLogger())
	if _, err := gen.Generate(context.Background(), generatorRecord()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("blank response should yield ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	gen := NewGenerator(&scriptedGenerator{err: errors.New("boom")}, GeneratorOptions{}, testLogger())
	if _, err := gen.Generate(context.Background(), generatorRecord()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("transport failure should yield ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateProseWrappedJSON(t *testing.T) {
	script := &scriptedGenerator{responses: []string{`here is json: {"a": 1} thanks`}}
	gen := NewGenerator(script, GeneratorOptions{}, testLogger())

	rec, err := gen.Generate(context.Background(), generatorRecord())
	if err != nil {
		t.Fatalf("prose-wrapped JSON should parse: %v", err)
	}
	if rec["a"] != float64(1) {
		t.Fatalf("payload key lost: %#v", rec)
	}
	if rec.ResourceID() != "res-1" {
		t.Fatalf("resource_id not stamped: %#v", rec)
	}
	// 100 over 10 days: 10/day.
	if rec.ForecastMonthly() != 304.38 {
		t.Fatalf("monthly forecast stamp = %v, want 304.38", rec.ForecastMonthly())
	}
	if rec.ForecastAnnual() != 3650 {
		t.Fatalf("annual forecast stamp = %v, want 3650", rec.ForecastAnnual())
	}
}

func TestGenerateUnbalancedBracesFailsAfterRetry(t *testing.T) {
	script := &scriptedGenerator{responses: []string{`{"a": 1`}}
	gen := NewGenerator(script, GeneratorOptions{}, testLogger())

	if _, err := gen.Generate(context.Background(), generatorRecord()); !errors.Is(err, ErrMalformedJSON) {
		t.Fatalf("unbalanced braces should yield ErrMalformedJSON, got %v", err)
	}
	if script.calls != 2 {
		t.Fatalf("malformed response should be retried exactly once, calls = %d", script.calls)
	}
}

func TestGenerateRetryRecovers(t *testing.T) {
	script := &scriptedGenerator{responses: []string{"no json here", `{"ok": true}`}}
	gen := NewGenerator(script, GeneratorOptions{}, testLogger())

	rec, err := gen.Generate(context.Background(), generatorRecord())
	if err != nil {
		t.Fatalf("retry should recover: %v", err)
	}
	if rec["ok"] != true {
		t.Fatalf("retried payload lost: %#v", rec)
	}
	if script.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", script.calls)
	}
}

func TestGenerateStampsOverrideModelValues(t *testing.T) {
	script := &scriptedGenerator{responses: []string{`{"resource_id": "made-up", "_forecast_monthly": 1, "_forecast_annual": 2}`}}
	gen := NewGenerator(script, GeneratorOptions{}, testLogger())

	rec, err := gen.Generate(context.Background(), generatorRecord())
	if err != nil {
		t.Fatalf("valid JSON should parse: %v", err)
	}
	if rec.ResourceID() != "res-1" {
		t.Fatalf("hallucinated resource_id survived: %#v", rec)
	}
	if rec.ForecastMonthly() != 304.38 || rec.ForecastAnnual() != 3650 {
		t.Fatalf("hallucinated forecasts survived: %#v", rec)
	}
}

func TestGenerateNonObjectJSON(t *testing.T) {
	script := &scriptedGenerator{responses: []string{`[1, 2, 3]`}}
	gen := NewGenerator(script, GeneratorOptions{}, testLogger())
	if _, err := gen.Generate(context.Background(), generatorRecord()); !errors.Is(err, ErrMalformedJSON) {
		t.Fatalf("non-object JSON should yield ErrMalformedJSON, got %v", err)
	}
}

// blockingGenerator waits for cancellation, mimicking a hung endpoint.
type blockingGenerator struct{}

func (blockingGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateTimeoutTreatedAsEmpty(t *testing.T) {
	gen := NewGenerator(blockingGenerator{}, GeneratorOptions{Timeout: 10 * time.Millisecond}, testLogger())
	if _, err := gen.Generate(context.Background(), generatorRecord()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("timeout should be treated as empty response, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{`prefix {"a": {"b": 2}} suffix`, `{"a": {"b": 2}}`},
		{`{"s": "brace } inside"} tail`, `{"s": "brace } inside"}`},
		{`{"esc": "quote \" and }"}`, `{"esc": "quote \" and }"}`},
		{"no braces at all", "no braces at all"},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.in); got != tc.want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeTypedView(t *testing.T) {
	rec := Recommendation{
		"resource_id":       "res-7",
		"_forecast_monthly": 120.5,
		"_forecast_annual":  1446.0,
		"recommendations": map[string]any{
			"effective_recommendation": map[string]any{"text": "downsize", "saving_pct": 35.0},
			"additional_recommendation": []any{
				map[string]any{"text": "schedule off-hours", "saving_pct": 10.0},
			},
			"base_of_recommendations": []any{"CPUUtilization"},
		},
		"contract_deal": map[string]any{"assessment": "unknown", "for sku": "t3.large"},
	}

	s, err := rec.Summarize()
	if err != nil {
		t.Fatalf("well-formed recommendation should summarize: %v", err)
	}
	if s.ResourceID != "res-7" || s.Recommendations.Effective.SavingPct != 35.0 {
		t.Fatalf("summary mismatch: %#v", s)
	}
	if s.ContractDeal.ForSKU != "t3.large" {
		t.Fatalf("contract deal sku lost: %#v", s.ContractDeal)
	}
}
