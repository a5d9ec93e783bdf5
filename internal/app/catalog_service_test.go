package app_test

import (
	"testing"

	"florist/internal/adapter/catalogfile"
	"florist/internal/app"
	"florist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productIDs(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestCatalogService_Get(t *testing.T) {
	svc := app.NewCatalogService(catalogfile.Default())

	p, err := svc.Get("tropical-paradise")
	require.NoError(t, err)
	assert.Equal(t, "Tropical Paradise", p.Name)

	_, err = svc.Get("plastic-ferns")
	assert.ErrorIs(t, err, app.ErrProductNotFound)
}

func TestCatalogService_Filter(t *testing.T) {
	svc := app.NewCatalogService(catalogfile.Default())

	got := svc.Filter(domain.FilterCriteria{Occasions: []string{"Birthday"}})
	require.NotEmpty(t, got)
	for _, p := range got {
		assert.True(t, p.HasOccasion("Birthday"), p.ID)
	}

	got = svc.Filter(domain.FilterCriteria{Category: "Romantic", Price: domain.Price70To80})
	assert.Equal(t, []string{"classic-romance", "pastel-dream"}, productIDs(got))
}

func TestCatalogService_Featured(t *testing.T) {
	svc := app.NewCatalogService(catalogfile.Default())
	assert.Equal(t,
		[]string{"romance-garden", "sunshine-bliss", "tropical-paradise", "classic-romance"},
		productIDs(svc.Featured()))
}

func TestCatalogService_Occasions(t *testing.T) {
	svc := app.NewCatalogService(catalogfile.Default())

	occ := svc.Occasions()
	assert.Len(t, occ, 16)
	assert.IsIncreasing(t, occ)

	assert.Equal(t, []string{"Easter", "Wedding"}, svc.KnownOccasions([]string{"Easter", "Halloween", "Wedding", "Easter"}))
	assert.Empty(t, svc.KnownOccasions(nil))
}

func TestCatalogService_Collections(t *testing.T) {
	svc := app.NewCatalogService(catalogfile.Default())

	cols := svc.Collections()
	require.Len(t, cols, 16)
	for _, c := range cols {
		assert.True(t, c.Product.HasOccasion(c.Occasion))
		assert.NotEmpty(t, c.Description, c.Occasion)
	}

	byOccasion := make(map[string]string)
	for _, c := range cols {
		byOccasion[c.Occasion] = c.Product.ID
	}
	assert.Equal(t, "romance-garden", byOccasion["Birthday"])
	assert.Equal(t, "pure-elegance", byOccasion["Wedding"])
	assert.Equal(t, "spring-awakening", byOccasion["Easter"])
}
