package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtrapolateZeroWindow(t *testing.T) {
	f := Extrapolate(decimal.NewFromInt(100), 0)
	if !f.Monthly.IsZero() || !f.Annually.IsZero() {
		t.Fatalf("zero-day window must forecast zero, got %s / %s", f.Monthly, f.Annually)
	}

	f = Extrapolate(decimal.NewFromInt(100), -3)
	if !f.Monthly.IsZero() || !f.Annually.IsZero() {
		t.Fatalf("negative window must forecast zero, got %s / %s", f.Monthly, f.Annually)
	}
}

func TestExtrapolateProjection(t *testing.T) {
	cases := []struct {
		billed   string
		days     int
		monthly  string
		annually string
	}{
		{"70", 7, "304.38", "3650.00"},
		{"100", 10, "304.38", "3650.00"},
		{"30.4375", 30, "30.88", "370.32"},
		{"0", 30, "0.00", "0.00"},
	}

	for _, tc := range cases {
		billed, err := decimal.NewFromString(tc.billed)
		if err != nil {
			t.Fatalf("bad test input %q: %v", tc.billed, err)
		}
		f := Extrapolate(billed, tc.days)
		if got := f.Monthly.StringFixed(2); got != tc.monthly {
			t.Fatalf("billed %s over %d days: monthly %s, want %s", tc.billed, tc.days, got, tc.monthly)
		}
		if got := f.Annually.StringFixed(2); got != tc.annually {
			t.Fatalf("billed %s over %d days: annually %s, want %s", tc.billed, tc.days, got, tc.annually)
		}
	}
}
