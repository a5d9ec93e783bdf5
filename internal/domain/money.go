package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses a currency-formatted amount such as "$65" or "$1,250.50".
func ParsePrice(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return decimal.Zero, fmt.Errorf("parse price %q: empty amount", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("parse price %q: negative amount", s)
	}
	return d, nil
}

// FormatPrice renders an amount for display, rounded to cents.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
