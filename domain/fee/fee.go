// Package fee provides monthly fee computation as pure functions.
package fee

import (
	"fmt"

	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/shopspring/decimal"
)

// Report holds the computed fees for one unit-month (value type).
type Report struct {
	UnitID         string
	Month          operation.Month
	MaxUsageMB     int64
	UpdateVolumeMB int64
	StorageFee     decimal.Decimal
	UpdateFee      decimal.Decimal
	UsageFee       decimal.Decimal
}

// Compute calculates the fee report for one unit-month under a plan.
// The free cap applies independently per fee type: a meter within the cap
// is waived entirely, not prorated.
// This is a PURE function.
func Compute(unitID string, month operation.Month, p plan.Plan, maxUsageMB, updateVolumeMB int64) Report {
	storage := meterFee(maxUsageMB, p.StoragePricePerMB, p)
	update := meterFee(updateVolumeMB, p.UpdatePricePerMB, p)

	return Report{
		UnitID:         unitID,
		Month:          month,
		MaxUsageMB:     maxUsageMB,
		UpdateVolumeMB: updateVolumeMB,
		StorageFee:     storage,
		UpdateFee:      update,
		UsageFee:       storage.Add(update),
	}
}

// meterFee charges volumeMB at rate unless the plan waives it.
func meterFee(volumeMB int64, rate decimal.Decimal, p plan.Plan) decimal.Decimal {
	if p.HasFreeCap() && volumeMB <= p.FreeMonthlyFeeCapMB {
		return decimal.Zero
	}
	return decimal.NewFromInt(volumeMB).Mul(rate)
}

// String formats the report as a single output line.
func (r Report) String() string {
	return fmt.Sprintf("%s %s storage_fee=%s update_fee=%s usage_fee=%s",
		r.UnitID, r.Month,
		FormatAmount(r.StorageFee), FormatAmount(r.UpdateFee), FormatAmount(r.UsageFee))
}

// FormatAmount renders a fee without a trailing fractional tail of zeros.
// This is a PURE function.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	if s == "-0" {
		return "0"
	}
	return s
}
