package fee_test

import (
	"testing"
	"time"

	"github.com/artpar/storagemeter/domain/fee"
	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/shopspring/decimal"
)

var april = operation.Month{Year: 2060, Month: time.April}

func uncappedPlan() plan.Plan {
	return plan.Plan{
		ID:                  "A1",
		StoragePricePerMB:   decimal.RequireFromString("0.01"),
		UpdatePricePerMB:    decimal.RequireFromString("0.0005"),
		FreeMonthlyFeeCapMB: plan.NoFreeCap,
	}
}

func cappedPlan(capMB int64) plan.Plan {
	p := uncappedPlan()
	p.FreeMonthlyFeeCapMB = capMB
	return p
}

func TestCompute_StorageFee(t *testing.T) {
	r := fee.Compute("storage_A1", april, uncappedPlan(), 5000, 0)

	if !r.StorageFee.Equal(decimal.RequireFromString("50")) {
		t.Errorf("storage fee = %s, want 50", r.StorageFee)
	}
	if !r.UpdateFee.IsZero() {
		t.Errorf("update fee = %s, want 0", r.UpdateFee)
	}
	if !r.UsageFee.Equal(r.StorageFee) {
		t.Errorf("usage fee = %s, want %s", r.UsageFee, r.StorageFee)
	}
}

func TestCompute_UpdateFee(t *testing.T) {
	r := fee.Compute("storage_A1", april, uncappedPlan(), 7000, 2000)

	if !r.StorageFee.Equal(decimal.RequireFromString("70")) {
		t.Errorf("storage fee = %s, want 70", r.StorageFee)
	}
	if !r.UpdateFee.Equal(decimal.RequireFromString("1")) {
		t.Errorf("update fee = %s, want 1", r.UpdateFee)
	}
	if !r.UsageFee.Equal(decimal.RequireFromString("71")) {
		t.Errorf("usage fee = %s, want 71", r.UsageFee)
	}
}

func TestCompute_FreeCapWaivesWithinBound(t *testing.T) {
	tests := []struct {
		name  string
		capMB int64
		usage int64
		free  bool
	}{
		{"under cap", 1000, 999, true},
		{"at cap", 1000, 1000, true},
		{"over cap", 1000, 1001, false},
		{"zero cap zero usage", 0, 0, true},
		{"zero cap with usage", 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fee.Compute("u", april, cappedPlan(tt.capMB), tt.usage, 0)
			if got := r.StorageFee.IsZero(); got != tt.free {
				t.Errorf("storage fee %s, waived = %v, want %v", r.StorageFee, got, tt.free)
			}
		})
	}
}

func TestCompute_FreeCapAppliesPerFeeType(t *testing.T) {
	// Max usage over the cap, update volume under it: only storage is charged.
	r := fee.Compute("u", april, cappedPlan(1000), 2000, 500)

	if r.StorageFee.IsZero() {
		t.Error("storage fee should be charged above the cap")
	}
	if !r.UpdateFee.IsZero() {
		t.Errorf("update fee = %s, want waived below the cap", r.UpdateFee)
	}

	// And the reverse.
	r = fee.Compute("u", april, cappedPlan(1000), 500, 2000)
	if !r.StorageFee.IsZero() {
		t.Errorf("storage fee = %s, want waived below the cap", r.StorageFee)
	}
	if r.UpdateFee.IsZero() {
		t.Error("update fee should be charged above the cap")
	}
}

func TestReport_String(t *testing.T) {
	r := fee.Compute("storage_A1", april, uncappedPlan(), 5000, 0)
	want := "storage_A1 2060-04 storage_fee=50 update_fee=0 usage_fee=50"
	if got := r.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50", "50"},
		{"0.5", "0.5"},
		{"0", "0"},
		{"12.345", "12.345"},
	}
	for _, tt := range tests {
		if got := fee.FormatAmount(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
