package domain

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// CartLine is one product-quantity pairing. Name, price and image are copied
// from the product when the line is created.
type CartLine struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageRef  string
	Quantity  int
}

// LineTotal returns price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MaxQuantity is the largest quantity a single line can hold.
const MaxQuantity = math.MaxInt32

// CartSnapshot is the cart state delivered to observers after a mutation.
// Version increases with every mutation of the cart it was taken from.
type CartSnapshot struct {
	Version    uint64
	Lines      []CartLine
	TotalItems int
	TotalPrice decimal.Decimal
}

type cartObserver struct {
	id int
	fn func(CartSnapshot)
}

// Cart holds the selected lines of one browsing session in insertion order.
// There is at most one line per product.
type Cart struct {
	mu        sync.Mutex
	lines     []CartLine
	observers []cartObserver
	nextID    int
	version   uint64
}

// NewCart returns a cart seeded with previously stored lines. Duplicate
// product ids are merged and quantities below 1 are raised to 1.
func NewCart(lines ...CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		l.Quantity = clampQuantity(l.Quantity)
		if i := c.indexOf(l.ProductID); i >= 0 {
			c.lines[i].Quantity = clampQuantity(c.lines[i].Quantity + l.Quantity)
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// AddItem increments the product's line or appends a new line with quantity 1.
func (c *Cart) AddItem(p Product) {
	c.mu.Lock()
	if i := c.indexOf(p.ID); i >= 0 {
		if c.lines[i].Quantity >= MaxQuantity {
			c.mu.Unlock()
			return
		}
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageRef:  p.ImageRef,
			Quantity:  1,
		})
	}
	c.unlockAndNotify()
}

// RemoveItem deletes the product's line. It reports false when no such line
// exists, in which case nothing changes.
func (c *Cart) RemoveItem(productID string) bool {
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.unlockAndNotify()
	return true
}

// UpdateQuantity sets the quantity of an existing line, clamping it to
// [1, MaxQuantity]. It reports false when no such line exists.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	quantity = clampQuantity(quantity)
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.lines[i].Quantity = quantity
	c.unlockAndNotify()
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return
	}
	c.lines = nil
	c.unlockAndNotify()
}

// Deduct subtracts the quantities of ordered from the matching lines and
// drops lines that reach zero. Lines and quantities added since ordered was
// taken are kept. It reports whether the cart changed.
func (c *Cart) Deduct(ordered []CartLine) bool {
	c.mu.Lock()
	changed := false
	for _, o := range ordered {
		i := c.indexOf(o.ProductID)
		if i < 0 || o.Quantity < 1 {
			continue
		}
		changed = true
		if c.lines[i].Quantity <= o.Quantity {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			continue
		}
		c.lines[i].Quantity -= o.Quantity
	}
	if !changed {
		c.mu.Unlock()
		return false
	}
	c.unlockAndNotify()
	return true
}

// TotalItems returns the sum of all quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalItems(c.lines)
}

// TotalPrice returns the sum of price × quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalPrice(c.lines)
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLines(c.lines)
}

// Snapshot returns the current lines together with the derived totals.
func (c *Cart) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the observer.
func (c *Cart) Subscribe(fn func(CartSnapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, cartObserver{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// unlockAndNotify must be called with c.mu held. Observers run after the
// lock is released so they may read the cart.
func (c *Cart) unlockAndNotify() {
	c.version++
	snap := c.snapshotLocked()
	observers := make([]cartObserver, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o.fn(snap)
	}
}

func (c *Cart) snapshotLocked() CartSnapshot {
	return CartSnapshot{
		Version:    c.version,
		Lines:      cloneLines(c.lines),
		TotalItems: totalItems(c.lines),
		TotalPrice: totalPrice(c.lines),
	}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func totalItems(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalPrice(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

func cloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// ParseQuantity converts quantity form input into a quantity. Empty,
// non-numeric and non-positive input yields 1. Values above MaxQuantity,
// including digit strings too long for an int, yield MaxQuantity.
func ParseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && !strings.HasPrefix(raw, "-") {
			return MaxQuantity
		}
		return 1
	}
	return clampQuantity(n)
}

func clampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return n
}

// CartRepository is the port for carts that outlive a single process.
type CartRepository interface {
	LoadCart(ctx context.Context, sessionID string) ([]CartLine, error)
	SaveCart(ctx context.Context, sessionID string, lines []CartLine) error
	DeleteCart(ctx context.Context, sessionID string) error
}
