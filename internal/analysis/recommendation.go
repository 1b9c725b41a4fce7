package analysis

import "encoding/json"

// Stamped field keys. They override whatever the model produced under the
// same names, so identity and forecast always come from the pipeline.
const (
	keyResourceID      = "resource_id"
	keyForecastMonthly = "_forecast_monthly"
	keyForecastAnnual  = "_forecast_annual"
)

// Recommendation is the parsed generation output for one resource with
// identity and forecast stamped in. Keys the model returned beyond the
// requested schema are preserved verbatim; the stored document reflects
// exactly what was generated.
type Recommendation map[string]any

// ResourceID returns the stamped resource identity.
func (r Recommendation) ResourceID() string {
	s, _ := r[keyResourceID].(string)
	return s
}

// ForecastMonthly returns the stamped monthly forecast.
func (r Recommendation) ForecastMonthly() float64 {
	f, _ := r[keyForecastMonthly].(float64)
	return f
}

// ForecastAnnual returns the stamped annual forecast.
func (r Recommendation) ForecastAnnual() float64 {
	f, _ := r[keyForecastAnnual].(float64)
	return f
}

// RecommendationEntry is one recommendation text with its estimated saving.
type RecommendationEntry struct {
	Text      string  `json:"text"`
	SavingPct float64 `json:"saving_pct"`
}

// Anomaly is one metric irregularity the model called out.
type Anomaly struct {
	MetricName  string  `json:"metric_name"`
	Timestamp   string  `json:"timestamp"`
	Value       float64 `json:"value"`
	ReasonShort string  `json:"reason_short"`
}

// ContractDeal is the model's judgement of the contracted price.
type ContractDeal struct {
	Assessment       string  `json:"assessment"`
	ForSKU           string  `json:"for sku"`
	Reason           string  `json:"reason"`
	MonthlySavingPct float64 `json:"monthly_saving_pct"`
	AnnualSavingPct  float64 `json:"annual_saving_pct"`
}

// Summary is the typed view of a Recommendation used for reporting.
type Summary struct {
	ResourceID      string  `json:"resource_id"`
	ForecastMonthly float64 `json:"_forecast_monthly"`
	ForecastAnnual  float64 `json:"_forecast_annual"`
	Recommendations struct {
		Effective  RecommendationEntry   `json:"effective_recommendation"`
		Additional []RecommendationEntry `json:"additional_recommendation"`
		Base       []string              `json:"base_of_recommendations"`
	} `json:"recommendations"`
	CostForecasting struct {
		Monthly  float64 `json:"monthly"`
		Annually float64 `json:"annually"`
	} `json:"cost_forecasting"`
	Anomalies    []Anomaly    `json:"anomalies"`
	ContractDeal ContractDeal `json:"contract_deal"`
}

// Summarize decodes the typed view. A response whose fields carry the wrong
// JSON types surfaces as a decode error here; callers treat that row as
// malformed instead of failing their whole listing.
func (r Recommendation) Summarize() (Summary, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}
