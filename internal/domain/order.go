package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryDays is how long after confirmation an order is expected to arrive.
const DeliveryDays = 3

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
	FullName string
	Address  string
	City     string
	ZipCode  string
}

// PaymentDetails is the checkout payment form.
type PaymentDetails struct {
	FullName   string
	Address    string
	City       string
	ZipCode    string
	CardNumber string
	ExpiryDate string
	CVV        string
}

// ShippingAddress returns the delivery part of the form.
func (d PaymentDetails) ShippingAddress() ShippingAddress {
	return ShippingAddress{
		FullName: d.FullName,
		Address:  d.Address,
		City:     d.City,
		ZipCode:  d.ZipCode,
	}
}

// CardLast4 returns the final four digits of the card number, ignoring spaces
// and dashes.
func (d PaymentDetails) CardLast4() string {
	digits := make([]rune, 0, len(d.CardNumber))
	for _, r := range d.CardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}

// PaymentRequest is submitted to a PaymentGateway.
type PaymentRequest struct {
	Email   string
	Amount  decimal.Decimal
	Details PaymentDetails
}

// PaymentReceipt is returned by a PaymentGateway for an accepted payment.
type PaymentReceipt struct {
	OrderNumber string
	ConfirmedAt time.Time
}

// PaymentGateway charges customers.
type PaymentGateway interface {
	SubmitPayment(ctx context.Context, req PaymentRequest) (PaymentReceipt, error)
}

// Order is a placed order. Only the last four card digits are retained.
type Order struct {
	Number            string
	UserID            int64
	Email             string
	Lines             []CartLine
	Totals            Totals
	ShipTo            ShippingAddress
	CardLast4         string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
}

// OrderRepository defines the port for order persistence operations.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error)
}

// OrderPublisher announces placed orders to downstream systems.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, o Order) error
}

// Confirmation is shown to the customer after a successful payment.
type Confirmation struct {
	OrderNumber       string
	Email             string
	Total             decimal.Decimal
	ConfirmedAt       time.Time
	EstimatedDelivery string
}

// DeliveryDate returns the expected delivery date for an order confirmed at t.
func DeliveryDate(t time.Time) time.Time {
	return t.AddDate(0, 0, DeliveryDays)
}

// DeliveryEstimate formats the expected delivery date as e.g. "Monday, January 2".
func DeliveryEstimate(t time.Time) string {
	return DeliveryDate(t).Format("Monday, January 2")
}
