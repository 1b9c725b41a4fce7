package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/service"
	"cloud-cost-advisor/internal/warehouse"
)

// Simulate runs the full pipeline against fabricated rows and a canned
// generation response: no database, no LLM endpoint. Useful for smoke
// testing configuration and prompt changes.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	source := &staticSource{}
	generator := analysis.NewGenerator(cannedCompleter{}, analysis.GeneratorOptions{
		Timeout: a.Config.Analysis.GenerationTimeout,
	}, a.Logger)

	svc := service.New(a.Config, source, generator, nil, nil, nil, a.Logger)

	report, err := svc.Analyze(ctx, service.Request{
		Cloud:        opts.Cloud,
		ResourceType: opts.ResourceType,
	})
	if err != nil {
		return err
	}

	a.Logger.Info().Int("analyzed", report.Analyzed).Msg("simulation complete")
	return writeReport(report, "")
}

// staticSource fabricates two plausible rows per dataset so the batch path
// and the prompt vocabulary both get exercised.
type staticSource struct{}

func (s *staticSource) FetchUtilization(ctx context.Context, dataset warehouse.Dataset, schema string, window analysis.Window, resourceID string) ([]analysis.RawUtilizationRow, error) {
	maxAt := window.End.AddDate(0, 0, -1).Format("2006-01-02")
	blob := simulatedBlobs[dataset.Type]

	rows := []analysis.RawUtilizationRow{
		{
			ResourceID:       fmt.Sprintf("sim-%s-low-util", dataset.Name),
			ResourceName:     "sim-low-util",
			Region:           "eu-west-1",
			AccountID:        "000000000000",
			SKU:              "sim-sku-small",
			BilledCost:       decimal.NewFromFloat(84.30),
			ConsumedQuantity: decimal.NewFromInt(720),
			PricingUnit:      "hours",
			MetricsBlob:      []byte(fmt.Sprintf(blob, 8.2, 41.0, maxAt)),
		},
		{
			ResourceID:       fmt.Sprintf("sim-%s-busy", dataset.Name),
			ResourceName:     "sim-busy",
			Region:           "eu-west-1",
			AccountID:        "000000000000",
			SKU:              "sim-sku-large",
			BilledCost:       decimal.NewFromFloat(412.90),
			ConsumedQuantity: decimal.NewFromInt(720),
			PricingUnit:      "hours",
			MetricsBlob:      []byte(fmt.Sprintf(blob, 71.4, 96.3, maxAt)),
		},
	}
	return rows, nil
}

// simulatedBlobs hold one formatted metric blob per resource type, keyed by
// the leading metric of that type's prompt vocabulary.
var simulatedBlobs = map[analysis.ResourceType]string{
	analysis.TypeEC2:     `{"CPUUtilization_Avg": %.1f, "CPUUtilization_Max": %.1f, "CPUUtilization_MaxDate": %q, "NetworkIn_Avg": 1204.5, "NetworkIn_Max": 8032.1}`,
	analysis.TypeVPC:     `{"BytesTransferred_Avg": %.1f, "BytesTransferred_Max": %.1f, "BytesTransferred_MaxDate": %q}`,
	analysis.TypeS3:      `{"BucketSizeBytes_Avg": %.1f, "BucketSizeBytes_Max": %.1f, "BucketSizeBytes_MaxDate": %q, "AllRequests_Avg": 340.0}`,
	analysis.TypeVM:      `{"Percentage CPU_Avg": %.1f, "Percentage CPU_Max": %.1f, "Percentage CPU_MaxDate": %q}`,
	analysis.TypeStorage: `{"UsedCapacity (GiB)_Avg": %.1f, "UsedCapacity (GiB)_Max": %.1f, "UsedCapacity (GiB)_MaxDate": %q, "Transactions (count)_Avg": 15240.0}`,
}

// cannedCompleter answers every prompt with the same prose-wrapped document,
// exercising extraction, parsing, and stamping exactly like a live endpoint.
type cannedCompleter struct{}

func (cannedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return `Here is the requested analysis:
{
  "recommendations": {
    "effective_recommendation": {
      "text": "Right-size the resource to the next smaller SKU based on sustained low utilization.",
      "saving_pct": 30
    },
    "additional_recommendation": [
      {"text": "Schedule a shutdown outside business hours.", "saving_pct": 15}
    ],
    "base_of_recommendations": ["CPUUtilization"]
  },
  "cost_forecasting": {"monthly": 0, "annually": 0},
  "anomalies": [],
  "contract_deal": {
    "assessment": "unknown",
    "for sku": "sim-sku",
    "reason": "Insufficient pricing facts in the simulated row.",
    "monthly_saving_pct": 0,
    "annual_saving_pct": 0
  }
}
Let me know if you need more detail.`, nil
}

var _ service.UtilizationSource = (*staticSource)(nil)
var _ analysis.TextGenerator = cannedCompleter{}
