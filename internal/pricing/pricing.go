// Package pricing computes order totals. It is pure: identical inputs
// always produce identical outputs, and nothing here touches stores or
// the network.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/guadalajara-pos/api/internal/model"
)

// SurchargeName is the optional by-weight line the operator can add to
// an order. It only counts when the entered price clears the threshold.
const SurchargeName = "Hueso de cerdo"

// SurchargeThreshold is the minimum price at which the surcharge line is
// billed; below it the line contributes nothing and is not persisted.
var SurchargeThreshold = decimal.NewFromInt(20000)

// LineTotal is quantity × unit price for a single line.
func LineTotal(l model.OrderLine) decimal.Decimal {
	return l.LineTotal()
}

// Subtotal sums the line totals of all billable lines (quantity > 0).
func Subtotal(lines []model.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Quantity > 0 {
			sum = sum.Add(l.LineTotal())
		}
	}
	return sum
}

// BillableLines filters out zero-quantity lines; only these persist.
func BillableLines(lines []model.OrderLine) []model.OrderLine {
	out := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}

// SurchargeContribution is the surcharge price when it meets the
// threshold, zero otherwise.
func SurchargeContribution(price decimal.Decimal) decimal.Decimal {
	if price.GreaterThanOrEqual(SurchargeThreshold) {
		return price
	}
	return decimal.Zero
}

// SurchargeLine builds the persisted surcharge line. ok is false when
// the price is below threshold and no line should be added.
func SurchargeLine(price decimal.Decimal) (model.OrderLine, bool) {
	if price.LessThan(SurchargeThreshold) {
		return model.OrderLine{}, false
	}
	return model.OrderLine{
		Name:      SurchargeName,
		Quantity:  1,
		UnitPrice: price,
	}, true
}

// Total is the order subtotal plus the surcharge contribution.
func Total(lines []model.OrderLine, surchargePrice decimal.Decimal) decimal.Decimal {
	return Subtotal(lines).Add(SurchargeContribution(surchargePrice))
}

// ParseSurcharge parses the operator-entered surcharge price. Empty or
// unparseable input counts as zero, matching the legacy capture form.
func ParseSurcharge(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
