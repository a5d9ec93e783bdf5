package domain

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Category groups bouquets by style.
type Category string

// Known categories.
const (
	CategoryRomantic Category = "Romantic"
	CategoryCheerful Category = "Cheerful"
	CategoryElegant  Category = "Elegant"
	CategoryExotic   Category = "Exotic"
	CategoryRustic   Category = "Rustic"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryRomantic,
	CategoryCheerful,
	CategoryElegant,
	CategoryExotic,
	CategoryRustic,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Product is an immutable catalog entry.
type Product struct {
	ID              string
	Name            string
	Description     string
	FullDescription string
	Details         []string
	Price           decimal.Decimal
	ImageRef        string
	Category        Category
	Occasions       []string
	Popular         bool
}

// HasOccasion reports whether the product is tagged with the given occasion.
func (p Product) HasOccasion(tag string) bool {
	return slices.Contains(p.Occasions, tag)
}

// Catalog is a loaded product list together with the description of each
// occasion tag.
type Catalog struct {
	Products             []Product
	OccasionDescriptions map[string]string
}
