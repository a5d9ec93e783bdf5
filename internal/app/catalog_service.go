package app

import (
	"errors"
	"slices"
	"sort"

	"florist/internal/domain"
)

// ErrProductNotFound indicates that no product has the requested id.
var ErrProductNotFound = errors.New("product not found")

// CatalogService answers read-only catalog queries.
type CatalogService struct {
	products     []domain.Product
	byID         map[string]int
	occasions    []string
	descriptions map[string]string
}

// Collection pairs an occasion with the first catalog product carrying it.
type Collection struct {
	Occasion    string
	Description string
	Product     domain.Product
}

// NewCatalogService indexes the given catalog.
func NewCatalogService(c domain.Catalog) *CatalogService {
	s := &CatalogService{
		products:     c.Products,
		byID:         make(map[string]int, len(c.Products)),
		descriptions: c.OccasionDescriptions,
	}
	seen := make(map[string]bool)
	for i, p := range c.Products {
		s.byID[p.ID] = i
		for _, o := range p.Occasions {
			if !seen[o] {
				seen[o] = true
				s.occasions = append(s.occasions, o)
			}
		}
	}
	sort.Strings(s.occasions)
	return s
}

// List returns every product in catalog order.
func (s *CatalogService) List() []domain.Product {
	return slices.Clone(s.products)
}

// Get returns the product with the given id.
func (s *CatalogService) Get(id string) (domain.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return s.products[i], nil
}

// Filter applies the catalog filter to the full product list.
func (s *CatalogService) Filter(c domain.FilterCriteria) []domain.Product {
	return domain.FilterProducts(s.products, c)
}

// Occasions returns the sorted set of occasion tags used in the catalog.
func (s *CatalogService) Occasions() []string {
	return slices.Clone(s.occasions)
}

// KnownOccasions keeps only the tags that appear in the catalog.
func (s *CatalogService) KnownOccasions(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, found := slices.BinarySearch(s.occasions, t); found && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Featured returns the popular products in catalog order.
func (s *CatalogService) Featured() []domain.Product {
	var out []domain.Product
	for _, p := range s.products {
		if p.Popular {
			out = append(out, p)
		}
	}
	return out
}

// Collections returns one entry per occasion, sorted by occasion.
func (s *CatalogService) Collections() []Collection {
	out := make([]Collection, 0, len(s.occasions))
	for _, o := range s.occasions {
		for _, p := range s.products {
			if p.HasOccasion(o) {
				out = append(out, Collection{
					Occasion:    o,
					Description: s.descriptions[o],
					Product:     p,
				})
				break
			}
		}
	}
	return out
}
