package analysis

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func vmRecord() UtilizationRecord {
	raw := RawUtilizationRow{
		ResourceID:   "/subscriptions/s1/providers/Microsoft.Compute/virtualMachines/web-01",
		ResourceName: "web-01",
		Region:       "westeurope",
		AccountID:    "sub-1",
		SKU:          "Standard_D4s_v3",
		BilledCost:   decimal.NewFromInt(300),
		MetricsBlob:  []byte(`{"Percentage CPU_Avg":14.2,"Percentage CPU_Max":61.0,"Percentage CPU_MaxDate":"2025-01-12"}`),
	}
	return Normalize(raw, CloudAzure, TypeVM, testWindow())
}

func TestBuildPromptEmbedsForecastLiterally(t *testing.T) {
	rec := vmRecord()
	forecast := Extrapolate(rec.BilledCost, rec.Window.DurationDays)
	prompt := BuildPrompt(rec, forecast)

	monthly := forecast.Monthly.StringFixed(2)
	annually := forecast.Annually.StringFixed(2)
	if !strings.Contains(prompt, "- monthly: "+monthly) {
		t.Fatalf("prompt should state monthly forecast %s", monthly)
	}
	if !strings.Contains(prompt, `"monthly": `+monthly) {
		t.Fatalf("response schema should embed monthly forecast %s", monthly)
	}
	if !strings.Contains(prompt, `"annually": `+annually) {
		t.Fatalf("response schema should embed annual forecast %s", annually)
	}
}

func TestBuildPromptRendersMetrics(t *testing.T) {
	prompt := BuildPrompt(vmRecord(), CostForecast{})

	if !strings.Contains(prompt, "Percentage CPU: Avg 14.20, Max 61.00 (on 2025-01-12)") {
		t.Fatalf("prompt should tabulate the CPU triple:\n%s", prompt)
	}
}

func TestBuildPromptPlaceholders(t *testing.T) {
	raw := RawUtilizationRow{ResourceID: "i-0abc"}
	rec := Normalize(raw, CloudAWS, TypeEC2, testWindow())
	prompt := BuildPrompt(rec, CostForecast{})

	if !strings.Contains(prompt, "SKU/Tier: N/A (N/A)") {
		t.Fatal("missing sku should render as N/A")
	}
	if !strings.Contains(prompt, "Contracted unit price: N/A") {
		t.Fatal("missing unit price should render as N/A")
	}
	// Vocabulary metrics always render, zero-valued when unobserved.
	if !strings.Contains(prompt, "CPUUtilization: Avg 0.00, Max 0.00") {
		t.Fatal("vocabulary metric should render with zero defaults")
	}
}

func TestBuildPromptAppendsExtraMetrics(t *testing.T) {
	raw := RawUtilizationRow{
		MetricsBlob: []byte(`{"StatusCheckFailed_Avg":1,"CPUUtilization_Avg":5}`),
	}
	rec := Normalize(raw, CloudAWS, TypeEC2, testWindow())
	prompt := BuildPrompt(rec, CostForecast{})

	vocabIdx := strings.Index(prompt, "DiskWriteOps:")
	extraIdx := strings.Index(prompt, "StatusCheckFailed:")
	if vocabIdx < 0 || extraIdx < 0 {
		t.Fatalf("both vocabulary and extra metrics should render:\n%s", prompt)
	}
	if extraIdx < vocabIdx {
		t.Fatal("extra metrics should follow the vocabulary")
	}
}

func TestBuildPromptGuidancePerType(t *testing.T) {
	storage := Normalize(RawUtilizationRow{}, CloudAzure, TypeStorage, testWindow())
	if p := BuildPrompt(storage, CostForecast{}); !strings.Contains(p, "Archive") {
		t.Fatal("storage guidance should mention tiering")
	}

	vpc := Normalize(RawUtilizationRow{}, CloudAWS, TypeVPC, testWindow())
	if p := BuildPrompt(vpc, CostForecast{}); !strings.Contains(p, "NAT") {
		t.Fatal("vpc guidance should mention NAT gateways")
	}

	vm := Normalize(RawUtilizationRow{}, CloudAzure, TypeVM, testWindow())
	if p := BuildPrompt(vm, CostForecast{}); !strings.Contains(p, "90%") {
		t.Fatal("vm guidance should carry the high-risk ceiling")
	}
}

func TestBuildPromptSchemaSKUFallback(t *testing.T) {
	rec := Normalize(RawUtilizationRow{}, CloudAWS, TypeVPC, testWindow())
	prompt := BuildPrompt(rec, CostForecast{})
	if !strings.Contains(prompt, `"for sku": "vpc"`) {
		t.Fatalf("schema should fall back to the resource type for sku:\n%s", prompt)
	}
}
