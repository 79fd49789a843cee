package dashboard

import "github.com/shopspring/decimal"

// CommissionRate is the fixed fraction of a completed service's price
// attributed as earnings.
var CommissionRate = decimal.NewFromFloat(0.6)

// Earnings computes round(sum(prices) * CommissionRate). The sum is taken
// before rounding; rounding each record first would compound error across
// aggregates.
func Earnings(prices ...float64) int64 {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.Mul(CommissionRate).Round(0).IntPart()
}
