// Package catalogfile loads the product catalog from a YAML artifact.
package catalogfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"florist/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Products  []productEntry    `yaml:"products"`
	Occasions map[string]string `yaml:"occasions"`
}

type productEntry struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Price           string   `yaml:"price"`
	Image           string   `yaml:"image"`
	Category        string   `yaml:"category"`
	Popular         bool     `yaml:"popular"`
	Description     string   `yaml:"description"`
	FullDescription string   `yaml:"full_description"`
	Details         []string `yaml:"details"`
	Occasions       []string `yaml:"occasions"`
}

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (domain.Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() domain.Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("catalogfile: embedded catalog is invalid: " + err.Error())
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Products))
	products := make([]domain.Product, 0, len(f.Products))
	for i, e := range f.Products {
		p, err := e.toProduct()
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("product %d (%q): %w", i, e.ID, err)
		}
		if seen[p.ID] {
			return domain.Catalog{}, fmt.Errorf("product %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		products = append(products, p)
	}

	descriptions := make(map[string]string, len(f.Occasions))
	for k, v := range f.Occasions {
		descriptions[k] = strings.TrimSpace(v)
	}

	return domain.Catalog{Products: products, OccasionDescriptions: descriptions}, nil
}

func (e productEntry) toProduct() (domain.Product, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return domain.Product{}, errors.New("missing id")
	}
	if strings.TrimSpace(e.Name) == "" {
		return domain.Product{}, errors.New("missing name")
	}
	price, err := domain.ParsePrice(e.Price)
	if err != nil {
		return domain.Product{}, err
	}
	category, err := domain.ParseCategory(e.Category)
	if err != nil {
		return domain.Product{}, err
	}

	occasions := make([]string, 0, len(e.Occasions))
	for _, o := range e.Occasions {
		o = strings.TrimSpace(o)
		if o == "" || slices.Contains(occasions, o) {
			continue
		}
		occasions = append(occasions, o)
	}

	return domain.Product{
		ID:              id,
		Name:            strings.TrimSpace(e.Name),
		Description:     strings.TrimSpace(e.Description),
		FullDescription: strings.TrimSpace(e.FullDescription),
		Details:         e.Details,
		Price:           price,
		ImageRef:        e.Image,
		Category:        category,
		Occasions:       occasions,
		Popular:         e.Popular,
	}, nil
}
