package facture

import "github.com/shopspring/decimal"

// Quebec sales tax rates: TPS (GST) and TVQ (QST). TVQ is applied to the
// subtotal directly, not compounded on TPS.
var (
	tpsRate = decimal.NewFromFloat(0.05)
	tvqRate = decimal.NewFromFloat(0.09975)
)

// Totals holds the derived monetary values for one facture. All values are
// rounded half-away-from-zero to 2 decimal places, once per intermediate
// value; 9.975 rounds up to 9.98.
type Totals struct {
	Subtotal   decimal.Decimal
	TPS        decimal.Decimal
	TVQ        decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeLineTotal returns unitPrice*quantity + fee rounded to cents.
// Missing values have already been defaulted to zero at the parse boundary.
func ComputeLineTotal(item LineItem) decimal.Decimal {
	total := item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).Add(item.Fee)
	return total.Round(2)
}

// ComputeTotals computes per-line totals, the subtotal, and both tax tiers.
// The items slice is annotated in place with each line's ComputedTotal.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	for i := range items {
		items[i].ComputedTotal = ComputeLineTotal(items[i])
		subtotal = subtotal.Add(items[i].ComputedTotal)
	}

	tps := subtotal.Mul(tpsRate).Round(2)
	tvq := subtotal.Mul(tvqRate).Round(2)

	return Totals{
		Subtotal:   subtotal,
		TPS:        tps,
		TVQ:        tvq,
		GrandTotal: subtotal.Add(tps).Add(tvq).Round(2),
	}
}
