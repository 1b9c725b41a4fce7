package analysis

import "github.com/shopspring/decimal"

var (
	daysPerMonth = decimal.NewFromFloat(30.4375)
	daysPerYear  = decimal.NewFromInt(365)
)

// CostForecast extrapolates a billing-window cost to calendar horizons.
type CostForecast struct {
	Monthly  decimal.Decimal
	Annually decimal.Decimal
}

// Extrapolate projects billed cost over a month and a year from the daily
// average. A non-positive duration yields a zero forecast rather than a
// division by zero. Both values are rounded to two decimal places.
func Extrapolate(billedCost decimal.Decimal, durationDays int) CostForecast {
	if durationDays <= 0 {
		return CostForecast{Monthly: decimal.Zero, Annually: decimal.Zero}
	}
	daily := billedCost.Div(decimal.NewFromInt(int64(durationDays)))
	return CostForecast{
		Monthly:  daily.Mul(daysPerMonth).Round(2),
		Annually: daily.Mul(daysPerYear).Round(2),
	}
}
