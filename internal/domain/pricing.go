package domain

import "github.com/shopspring/decimal"

var (
	taxRate      = decimal.RequireFromString("0.10")
	flatShipping = decimal.NewFromInt(10)
)

// Totals is the price breakdown of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// TotalsDisplay holds Totals formatted for presentation.
type TotalsDisplay struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// ComputeTotals prices the current contents of c.
func ComputeTotals(c *Cart) Totals {
	return ComputeTotalsForLines(c.Lines())
}

// ComputeTotalsForLines applies 10% tax and a flat $10 shipping charge to a
// non-empty set of lines. An empty set costs nothing.
func ComputeTotalsForLines(lines []CartLine) Totals {
	subtotal := totalPrice(lines)
	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = flatShipping
	}
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Display formats each component with FormatPrice.
func (t Totals) Display() TotalsDisplay {
	return TotalsDisplay{
		Subtotal: FormatPrice(t.Subtotal),
		Tax:      FormatPrice(t.Tax),
		Shipping: FormatPrice(t.Shipping),
		Total:    FormatPrice(t.Total),
	}
}
