package domain_test

import (
	"testing"
	"time"

	"florist/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals_Empty(t *testing.T) {
	got := domain.ComputeTotals(domain.NewCart())
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Shipping.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotals(t *testing.T) {
	c := domain.NewCart()
	c.AddItem(product("rose", domain.CategoryRomantic, 65))
	c.AddItem(product("rose", domain.CategoryRomantic, 65))
	c.AddItem(product("lily", domain.CategoryElegant, 85))

	got := domain.ComputeTotals(c)
	assert.True(t, got.Subtotal.Equal(dec("215")))
	assert.True(t, got.Tax.Equal(dec("21.5")))
	assert.True(t, got.Shipping.Equal(dec("10")))
	assert.True(t, got.Total.Equal(dec("246.5")))

	d := got.Display()
	assert.Equal(t, domain.TotalsDisplay{
		Subtotal: "$215.00",
		Tax:      "$21.50",
		Shipping: "$10.00",
		Total:    "$246.50",
	}, d)
}

func TestComputeTotals_ScalesWithQuantity(t *testing.T) {
	single := []domain.CartLine{
		{ProductID: "a", Price: dec("72.50"), Quantity: 1},
		{ProductID: "b", Price: dec("60"), Quantity: 2},
	}
	double := []domain.CartLine{
		{ProductID: "a", Price: dec("72.50"), Quantity: 2},
		{ProductID: "b", Price: dec("60"), Quantity: 4},
	}
	one := domain.ComputeTotalsForLines(single)
	two := domain.ComputeTotalsForLines(double)

	assert.True(t, two.Subtotal.Equal(one.Subtotal.Mul(dec("2"))))
	assert.True(t, two.Tax.Equal(one.Tax.Mul(dec("2"))))
	assert.True(t, two.Shipping.Equal(one.Shipping))
	assert.True(t, two.Total.Sub(two.Shipping).Equal(one.Total.Sub(one.Shipping).Mul(dec("2"))))
}

func TestDeliveryEstimate(t *testing.T) {
	confirmed := time.Date(2024, time.March, 8, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "Monday, March 11", domain.DeliveryEstimate(confirmed))
}

func TestPaymentDetails_CardLast4(t *testing.T) {
	assert.Equal(t, "4242", domain.PaymentDetails{CardNumber: "4242 4242 4242 4242"}.CardLast4())
	assert.Equal(t, "1234", domain.PaymentDetails{CardNumber: "1-2-3-4"}.CardLast4())
	assert.Equal(t, "12", domain.PaymentDetails{CardNumber: "12"}.CardLast4())
}
