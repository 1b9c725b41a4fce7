package analysis

import (
	"fmt"
	"sort"
	"strings"
)

const notAvailable = "N/A"

// promptDescriptor parameterises the prompt for one resource type. The
// vocabulary lists the metrics the prompt always tabulates, in order;
// metrics observed on the record but absent from the vocabulary are
// appended alphabetically.
type promptDescriptor struct {
	display    string
	provider   string
	vocabulary []string
	guidance   []string
}

var promptDescriptors = map[ResourceType]promptDescriptor{
	TypeEC2: {
		display:    "EC2 instance",
		provider:   "AWS",
		vocabulary: []string{"CPUUtilization", "NetworkIn", "NetworkOut", "DiskReadOps", "DiskWriteOps"},
		guidance: []string{
			"Is the instance right-sized, or should it move to a smaller or larger instance type?",
			"Could this workload run on Spot instances, or would Reserved Instances pay off given stable usage?",
			"Are there scheduling opportunities, such as stopping the instance outside business hours?",
			"Flag performance anomalies that indicate inefficient usage.",
		},
	},
	TypeVPC: {
		display:    "VPC networking resource",
		provider:   "AWS",
		vocabulary: []string{"BytesTransferred", "ActiveConnectionCount", "PacketsDropCount"},
		guidance: []string{
			"For NAT gateways: could gateway or interface VPC endpoints replace paid NAT traffic?",
			"Identify idle resources: unused NAT gateways, subnets, or endpoints that can be removed.",
			"For VPN connections: are they actively used, or can they be consolidated?",
			"Consider cross-AZ data transfer and whether traffic can stay zone-local.",
		},
	},
	TypeS3: {
		display:    "S3 bucket",
		provider:   "AWS",
		vocabulary: []string{"BucketSizeBytes", "NumberOfObjects", "AllRequests"},
		guidance: []string{
			"Should objects transition to cheaper storage classes (Standard-IA, Glacier) via lifecycle rules?",
			"Are aging objects or incomplete multipart uploads accumulating cost that cleanup rules would remove?",
			"If request charges dominate storage charges, recommend request-pattern changes.",
			"Flag sudden growth in bucket size or object count as an anomaly.",
		},
	},
	TypeVM: {
		display:    "virtual machine",
		provider:   "Azure",
		vocabulary: []string{"Percentage CPU"},
		guidance: []string{
			"Prioritise right-sizing when average CPU is below 20% and max CPU is below 75%.",
			"Do not recommend downsizing when max CPU exceeds 90%; the spike risk is too high.",
			"When cost is high and usage stable, assess a Reserved Instance purchase.",
			"Propose off-hours shutdown schedules when the usage pattern suggests a development workload.",
		},
	},
	TypeStorage: {
		display:    "storage account",
		provider:   "Azure",
		vocabulary: []string{"UsedCapacity (GiB)", "Transactions (count)"},
		guidance: []string{
			"Prioritise moving high used capacity from the Hot tier to Cool or Archive; Cool costs roughly 30% of Hot and Archive roughly 5%.",
			"When capacity is small but transactions dominate, prioritise reducing transaction volume instead.",
			"Use the max capacity and its date to check for saturation trends before recommending tier moves.",
			"Recommend lifecycle management policies for blobs that age out of access.",
		},
	},
}

// BuildPrompt renders the self-contained instruction block for one record.
// The forecast values are embedded literally in the required response
// schema, so a conforming response echoes them back unchanged. Optional
// fields render as "N/A" rather than failing.
func BuildPrompt(rec UtilizationRecord, forecast CostForecast) string {
	desc, ok := promptDescriptors[rec.ResourceType]
	if !ok {
		desc = promptDescriptor{display: string(rec.ResourceType), provider: strings.ToUpper(string(rec.Cloud))}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a cloud cost optimization expert for %s. Analyze the following %s and respond with optimization recommendations in strict JSON format.\n\n",
		desc.provider, desc.display)

	b.WriteString("Resource details:\n")
	fmt.Fprintf(&b, "- Resource ID: %s\n", orNA(rec.ResourceID))
	fmt.Fprintf(&b, "- Name: %s\n", orNA(rec.ResourceName))
	fmt.Fprintf(&b, "- SKU/Tier: %s (%s)\n", orNA(rec.SKU), orNA(rec.AccessTier))
	fmt.Fprintf(&b, "- Region: %s\n", orNA(rec.Region))
	fmt.Fprintf(&b, "- Account: %s\n", orNA(rec.AccountID))
	for _, line := range detailLines(rec.Details) {
		b.WriteString(line)
	}
	fmt.Fprintf(&b, "- Analysis period: %s to %s (%d days)\n",
		rec.Window.Start.Format("2006-01-02"), rec.Window.End.Format("2006-01-02"), rec.Window.DurationDays)
	fmt.Fprintf(&b, "- Total billed cost for period: $%s\n", rec.BilledCost.StringFixed(2))
	fmt.Fprintf(&b, "- Consumed quantity: %s %s\n", rec.ConsumedQuantity.String(), orNA(rec.PricingUnit))
	fmt.Fprintf(&b, "- Contracted unit price: %s\n\n", priceOrNA(rec))

	b.WriteString("Utilization metrics (avg / max / max date):\n")
	for _, name := range metricOrder(desc.vocabulary, rec.Metrics) {
		t := rec.Metric(name)
		fmt.Fprintf(&b, "- %s: Avg %.2f, Max %.2f (on %s)\n", name, t.Avg, t.Max, orNA(t.MaxAt))
	}

	b.WriteString("\nComputed cost forecast (echo these exact values in cost_forecasting):\n")
	fmt.Fprintf(&b, "- monthly: %s\n", forecast.Monthly.StringFixed(2))
	fmt.Fprintf(&b, "- annually: %s\n\n", forecast.Annually.StringFixed(2))

	b.WriteString("Your task:\n")
	for i, line := range desc.guidance {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	b.WriteString("Set contract_deal.assessment to \"unknown\" when the pricing facts above are insufficient to judge the deal.\n\n")

	b.WriteString("Response format (JSON only):\n")
	b.WriteString(responseSchema(rec, forecast))
	b.WriteString("\nReturn ONLY the JSON object, no additional text.\n")
	return b.String()
}

func responseSchema(rec UtilizationRecord, forecast CostForecast) string {
	sku := rec.SKU
	if sku == "" {
		sku = string(rec.ResourceType)
	}
	return fmt.Sprintf(`{
  "recommendations": {
    "effective_recommendation": {
      "text": "Primary recommendation",
      "saving_pct": <number between 0 and 100>
    },
    "additional_recommendation": [
      {
        "text": "Secondary recommendation",
        "saving_pct": <number between 0 and 100>
      }
    ],
    "base_of_recommendations": [
      "Metric or fact this is based on"
    ]
  },
  "cost_forecasting": {
    "monthly": %s,
    "annually": %s
  },
  "anomalies": [
    {
      "metric_name": "...",
      "timestamp": "YYYY-MM-DD",
      "value": <number>,
      "reason_short": "Brief explanation"
    }
  ],
  "contract_deal": {
    "assessment": "good|bad|unknown",
    "for sku": %q,
    "reason": "Explanation of the pricing assessment",
    "monthly_saving_pct": <number>,
    "annual_saving_pct": <number>
  }
}
`, forecast.Monthly.StringFixed(2), forecast.Annually.StringFixed(2), sku)
}

// metricOrder returns the vocabulary first, then any further observed
// metrics alphabetically, so prompt output is deterministic.
func metricOrder(vocabulary []string, observed map[string]MetricTriple) []string {
	order := make([]string, 0, len(vocabulary)+len(observed))
	seen := map[string]bool{}
	for _, name := range vocabulary {
		order = append(order, name)
		seen[name] = true
	}
	extras := make([]string, 0, len(observed))
	for name := range observed {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

func detailLines(details map[string]string) []string {
	if len(details) == 0 {
		return nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		if details[k] == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s\n", k, details[k]))
	}
	return lines
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func priceOrNA(rec UtilizationRecord) string {
	if rec.ContractedUnitPrice.IsZero() {
		return notAvailable
	}
	return rec.ContractedUnitPrice.String()
}
