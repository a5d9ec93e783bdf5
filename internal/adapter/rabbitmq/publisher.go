// Package rabbitmq publishes order events to RabbitMQ.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"florist/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	// OrderConfirmedQueue receives one message per confirmed order.
	OrderConfirmedQueue = "florist.order.confirmed.v1"

	orderConfirmedEvent = "OrderConfirmed"
	producer            = "florist"
	publishTimeout      = 3 * time.Second
)

// Envelope is the common wrapper of every published event.
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

// OrderConfirmed is the payload announcing a paid order.
type OrderConfirmed struct {
	OrderNumber       string          `json:"orderNumber"`
	UserID            int64           `json:"userId"`
	Email             string          `json:"email"`
	Items             []OrderItem     `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	Shipping          decimal.Decimal `json:"shipping"`
	Total             decimal.Decimal `json:"total"`
	City              string          `json:"city"`
	ZipCode           string          `json:"zipCode"`
	ConfirmedAt       time.Time       `json:"confirmedAt"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}

// OrderItem is one line of a confirmed order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements domain.OrderPublisher over an AMQP channel.
type Publisher struct {
	ch  channel
	now func() time.Time
}

var _ domain.OrderPublisher = (*Publisher)(nil)

// Dial connects to the broker at url.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}

// NewPublisher opens a channel on conn and declares the order queue.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel) (*Publisher, error) {
	if _, err := ch.QueueDeclare(OrderConfirmedQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderConfirmedQueue, err)
	}
	return &Publisher{ch: ch, now: time.Now}, nil
}

// Close closes the channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishOrderPlaced sends an OrderConfirmed event for o. The card digits
// and street address are left out of the message.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, o domain.Order) error {
	ev := Envelope[OrderConfirmed]{
		EventName:    orderConfirmedEvent,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     producer,
		PartitionKey: o.Number,
		OccurredAt:   p.now().UTC(),
		Payload: OrderConfirmed{
			OrderNumber:       o.Number,
			UserID:            o.UserID,
			Email:             o.Email,
			Items:             make([]OrderItem, 0, len(o.Lines)),
			Subtotal:          o.Totals.Subtotal,
			Tax:               o.Totals.Tax,
			Shipping:          o.Totals.Shipping,
			Total:             o.Totals.Total,
			City:              o.ShipTo.City,
			ZipCode:           o.ShipTo.ZipCode,
			ConfirmedAt:       o.ConfirmedAt.UTC(),
			EstimatedDelivery: o.EstimatedDelivery.UTC(),
		},
	}
	for _, l := range o.Lines {
		ev.Payload.Items = append(ev.Payload.Items, OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", orderConfirmedEvent, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.ch.PublishWithContext(pubCtx, "", OrderConfirmedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
}
