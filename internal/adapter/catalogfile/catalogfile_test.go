package catalogfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"florist/internal/adapter/catalogfile"
	"florist/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	c, err := catalogfile.Load("")
	require.NoError(t, err)
	require.Len(t, c.Products, 9)

	first := c.Products[0]
	assert.Equal(t, "romance-garden", first.ID)
	assert.True(t, first.Price.Equal(decimal.NewFromInt(65)))
	assert.Equal(t, domain.CategoryRomantic, first.Category)
	assert.True(t, first.Popular)
	assert.True(t, first.HasOccasion("Valentine's Day"))
	assert.Len(t, first.Details, 5)

	var popular []string
	for _, p := range c.Products {
		if p.Popular {
			popular = append(popular, p.ID)
		}
	}
	assert.Equal(t, []string{"romance-garden", "sunshine-bliss", "tropical-paradise", "classic-romance"}, popular)

	assert.Len(t, c.OccasionDescriptions, 16)
	assert.Contains(t, c.OccasionDescriptions, "Easter")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
products:
  - id: daisy
    name: Daisy Chain
    price: "$1,050.25"
    category: Rustic
    occasions: [Birthday, Birthday, " Thank You "]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := catalogfile.Load(path)
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.True(t, c.Products[0].Price.Equal(decimal.RequireFromString("1050.25")))
	assert.Equal(t, []string{"Birthday", "Thank You"}, c.Products[0].Occasions)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate id", `
products:
  - {id: a, name: A, price: "$1", category: Romantic}
  - {id: a, name: B, price: "$2", category: Romantic}
`},
		{"unknown category", `
products:
  - {id: a, name: A, price: "$1", category: Spooky}
`},
		{"bad price", `
products:
  - {id: a, name: A, price: "free", category: Romantic}
`},
		{"missing id", `
products:
  - {name: A, price: "$1", category: Romantic}
`},
		{"not yaml", "products: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalogfile.Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := catalogfile.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
