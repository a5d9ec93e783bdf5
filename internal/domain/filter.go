package domain

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// AllCategories matches every category in a FilterCriteria.
const AllCategories = "all"

// PriceBracket narrows products by price.
type PriceBracket string

// Supported price brackets.
const (
	PriceAll     PriceBracket = "all"
	PriceUnder70 PriceBracket = "under70"
	Price70To80  PriceBracket = "70to80"
	PriceOver80  PriceBracket = "over80"
)

var (
	seventy = decimal.NewFromInt(70)
	eighty  = decimal.NewFromInt(80)
)

// ParsePriceBracket accepts the bracket names plus the "70-80" form used by
// older links. An empty string means all prices.
func ParsePriceBracket(s string) (PriceBracket, error) {
	switch s {
	case "", string(PriceAll):
		return PriceAll, nil
	case string(PriceUnder70):
		return PriceUnder70, nil
	case string(Price70To80), "70-80":
		return Price70To80, nil
	case string(PriceOver80):
		return PriceOver80, nil
	}
	return "", fmt.Errorf("unknown price bracket %q", s)
}

// Matches reports whether price falls inside the bracket. Unknown brackets
// match everything.
func (b PriceBracket) Matches(price decimal.Decimal) bool {
	switch b {
	case PriceUnder70:
		return price.LessThan(seventy)
	case Price70To80:
		return price.GreaterThanOrEqual(seventy) && price.LessThanOrEqual(eighty)
	case PriceOver80:
		return price.GreaterThan(eighty)
	default:
		return true
	}
}

// FilterCriteria is the set of predicates applied by FilterProducts.
type FilterCriteria struct {
	Category  string
	Price     PriceBracket
	Occasions []string
}

// FilterProducts returns the products matching every predicate in c, in
// input order. An occasion filter matches a product carrying any of the
// requested tags.
func FilterProducts(products []Product, c FilterCriteria) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if c.Category != "" && c.Category != AllCategories && string(p.Category) != c.Category {
			continue
		}
		if !c.Price.Matches(p.Price) {
			continue
		}
		if len(c.Occasions) > 0 && !slices.ContainsFunc(c.Occasions, p.HasOccasion) {
			continue
		}
		out = append(out, p)
	}
	return out
}
