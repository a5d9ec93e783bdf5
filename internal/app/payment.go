package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"florist/internal/domain"

	"github.com/oklog/ulid/v2"
)

const orderNumberPrefix = "ORD-"

// SimulatedGateway is a stand-in payment processor that approves every
// request. It issues ULID-based order numbers, which sort by confirmation
// time and never repeat within a process.
type SimulatedGateway struct {
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var _ domain.PaymentGateway = (*SimulatedGateway)(nil)

// NewSimulatedGateway returns a gateway using clock for confirmation times.
// A nil clock means time.Now.
func NewSimulatedGateway(clock func() time.Time) *SimulatedGateway {
	if clock == nil {
		clock = time.Now
	}
	return &SimulatedGateway{
		now:     clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// SubmitPayment approves the payment.
func (g *SimulatedGateway) SubmitPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentReceipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentReceipt{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.PaymentReceipt{}, fmt.Errorf("payment amount must be positive, got %s", req.Amount)
	}

	now := g.now()
	g.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	g.mu.Unlock()
	if err != nil {
		return domain.PaymentReceipt{}, fmt.Errorf("generate order number: %w", err)
	}

	return domain.PaymentReceipt{
		OrderNumber: orderNumberPrefix + id.String(),
		ConfirmedAt: now,
	}, nil
}
