// Package plan provides pricing plan value types and pure functions.
package plan

import "github.com/shopspring/decimal"

// NoFreeCap marks a plan without a free monthly fee cap.
const NoFreeCap int64 = -1

// Plan represents the pricing policy for a storage unit (immutable value type).
type Plan struct {
	ID                  string
	Name                string
	StoragePricePerMB   decimal.Decimal
	UpdatePricePerMB    decimal.Decimal
	FreeMonthlyFeeCapMB int64 // MB volume waived per fee type; NoFreeCap = always charged
}

// HasFreeCap reports whether the plan waives fees below a monthly volume.
func (p Plan) HasFreeCap() bool {
	return p.FreeMonthlyFeeCapMB >= 0
}

// FindPlan finds a plan by ID in a list.
// This is a PURE function.
func FindPlan(plans []Plan, id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Valid reports whether the plan's rates are usable for billing.
// This is a PURE function.
func Valid(p Plan) bool {
	if p.ID == "" {
		return false
	}
	if p.StoragePricePerMB.IsNegative() || p.UpdatePricePerMB.IsNegative() {
		return false
	}
	return p.FreeMonthlyFeeCapMB >= 0 || p.FreeMonthlyFeeCapMB == NoFreeCap
}
