package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"florist/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrAuthRequired is returned when a step needs a signed-in customer.
	ErrAuthRequired = errors.New("sign in required")
	// ErrEmptyCart is returned when a step needs items in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned when an operation is not allowed in the current stage.
	ErrInvalidTransition = errors.New("invalid checkout transition")
	// ErrBusy is returned while a sign-in or payment call is still running.
	ErrBusy = errors.New("another checkout request is in progress")
)

// CheckoutDeps are the collaborators of a checkout Controller. Orders and
// Events may be nil.
type CheckoutDeps struct {
	Identity domain.IdentityProvider
	Gateway  domain.PaymentGateway
	Orders   domain.OrderRepository
	Events   domain.OrderPublisher
	Logger   *zap.Logger
}

// CheckoutView is a consistent snapshot of a checkout session.
type CheckoutView struct {
	Stage        domain.Stage
	Auth         domain.AuthState
	Email        string
	FormMode     domain.FormMode
	Busy         bool
	Lines        []domain.CartLine
	TotalItems   int
	Totals       domain.Totals
	Confirmation *domain.Confirmation
}

// Controller walks one browsing session through checkout. The auth state is
// taken only from the identity provider's notifications, which are applied
// at the start of every operation.
type Controller struct {
	clientID string
	cart     *domain.Cart
	identity domain.IdentityProvider
	gateway  domain.PaymentGateway
	orders   domain.OrderRepository
	events   domain.OrderPublisher
	log      *zap.Logger

	mu           sync.Mutex
	authCh       <-chan domain.AuthChange
	unsubscribe  func()
	user         *domain.User
	stage        domain.Stage
	mode         domain.FormMode
	busy         bool
	confirmation *domain.Confirmation
}

// NewController subscribes to the identity provider for clientID. Close
// must be called when the session ends.
func NewController(clientID string, cart *domain.Cart, deps CheckoutDeps) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		clientID: clientID,
		cart:     cart,
		identity: deps.Identity,
		gateway:  deps.Gateway,
		orders:   deps.Orders,
		events:   deps.Events,
		log:      log.With(zap.String("client", clientID)),
		stage:    domain.StageReviewing,
		mode:     domain.FormLogin,
	}
	c.authCh, c.unsubscribe = deps.Identity.Subscribe(clientID)

	c.mu.Lock()
	c.syncLocked()
	c.mu.Unlock()
	return c
}

// State returns the current view of the checkout.
func (c *Controller) State() CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	snap := c.cart.Snapshot()
	v := CheckoutView{
		Stage:        c.stage,
		Auth:         domain.AuthAnonymous,
		FormMode:     c.mode,
		Busy:         c.busy,
		Lines:        snap.Lines,
		TotalItems:   snap.TotalItems,
		Totals:       domain.ComputeTotalsForLines(snap.Lines),
		Confirmation: c.confirmation,
	}
	if c.user != nil {
		v.Auth = domain.AuthAuthenticated
		v.Email = c.user.Email
	}
	return v
}

// Stage returns the current stage.
func (c *Controller) Stage() domain.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	return c.stage
}

// SetFormMode switches between the login and signup forms.
func (c *Controller) SetFormMode(mode domain.FormMode) error {
	if !mode.Valid() {
		return &ValidationError{Fields: map[string]string{"mode": "Unknown form mode"}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	return nil
}

// SignUp validates the form and registers a new account with the identity
// provider. An already registered email switches the form to login.
func (c *Controller) SignUp(ctx context.Context, form SignupForm) error {
	email, err := c.beginAuth(func() (string, error) { return form.Validate() })
	if err != nil {
		return err
	}

	_, err = c.identity.SignUp(ctx, c.clientID, email, form.Password)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			c.mode = domain.FormLogin
		}
		c.log.Warn("signup failed", zap.Error(err))
		return &AuthError{Op: "signup", Err: err}
	}
	c.syncLocked()
	return nil
}

// SignIn validates the form and signs in with the identity provider.
func (c *Controller) SignIn(ctx context.Context, form LoginForm) error {
	email, err := c.beginAuth(func() (string, error) { return form.Validate() })
	if err != nil {
		return err
	}

	_, err = c.identity.SignInWithPassword(ctx, c.clientID, email, form.Password)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.log.Warn("login failed", zap.Error(err))
		return &AuthError{Op: "login", Err: err}
	}
	c.syncLocked()
	return nil
}

func (c *Controller) beginAuth(validate func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	if c.busy {
		return "", ErrBusy
	}
	if c.user != nil {
		return "", fmt.Errorf("%w: already signed in", ErrInvalidTransition)
	}
	email, err := validate()
	if err != nil {
		return "", err
	}
	c.busy = true
	return email, nil
}

// SignOut signs the customer out. The cart is kept and a checkout in
// progress returns to the sign-in gate.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.syncLocked()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	err := c.identity.SignOut(ctx, c.clientID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return &AuthError{Op: "logout", Err: err}
	}
	c.syncLocked()
	return nil
}

// ProceedToPayment moves from the order summary to the payment form.
func (c *Controller) ProceedToPayment() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	switch {
	case c.busy:
		return ErrBusy
	case c.cart.Len() == 0:
		return ErrEmptyCart
	case c.user == nil:
		return ErrAuthRequired
	case c.stage != domain.StageSummary:
		return fmt.Errorf("%w: proceed from %s", ErrInvalidTransition, c.stage)
	}
	c.setStageLocked(domain.StagePayment)
	return nil
}

// Back returns from the payment form to the order summary.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	if c.busy {
		return ErrBusy
	}
	if c.stage != domain.StagePayment {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, c.stage)
	}
	c.setStageLocked(domain.StageSummary)
	return nil
}

// SubmitPayment charges the cart through the payment gateway and confirms
// the order. On success the ordered quantities are removed from the cart;
// items added while the payment was in flight stay for the next order.
func (c *Controller) SubmitPayment(ctx context.Context, details domain.PaymentDetails) (*domain.Confirmation, error) {
	c.mu.Lock()
	c.syncLocked()
	switch {
	case c.busy:
		c.mu.Unlock()
		return nil, ErrBusy
	case c.user == nil:
		c.mu.Unlock()
		return nil, ErrAuthRequired
	case c.stage != domain.StagePayment:
		stage := c.stage
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: pay from %s", ErrInvalidTransition, stage)
	}
	if err := validatePayment(details); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	user := *c.user
	lines := c.cart.Lines()
	totals := domain.ComputeTotalsForLines(lines)
	c.busy = true
	c.mu.Unlock()

	order, err := c.placeOrder(ctx, user, lines, totals, details)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return nil, err
	}

	c.cart.Deduct(order.Lines)
	c.confirmation = &domain.Confirmation{
		OrderNumber:       order.Number,
		Email:             order.Email,
		Total:             order.Totals.Total,
		ConfirmedAt:       order.ConfirmedAt,
		EstimatedDelivery: domain.DeliveryEstimate(order.ConfirmedAt),
	}
	c.setStageLocked(domain.StageConfirmed)
	c.log.Info("order confirmed", zap.String("order", order.Number), zap.String("total", domain.FormatPrice(order.Totals.Total)))

	conf := *c.confirmation
	return &conf, nil
}

func (c *Controller) placeOrder(ctx context.Context, user domain.User, lines []domain.CartLine, totals domain.Totals, details domain.PaymentDetails) (*domain.Order, error) {
	receipt, err := c.gateway.SubmitPayment(ctx, domain.PaymentRequest{
		Email:   user.Email,
		Amount:  totals.Total,
		Details: details,
	})
	if err != nil {
		return nil, fmt.Errorf("submit payment: %w", err)
	}

	order := &domain.Order{
		Number:            receipt.OrderNumber,
		UserID:            user.ID,
		Email:             user.Email,
		Lines:             lines,
		Totals:            totals,
		ShipTo:            details.ShippingAddress(),
		CardLast4:         details.CardLast4(),
		ConfirmedAt:       receipt.ConfirmedAt,
		EstimatedDelivery: domain.DeliveryDate(receipt.ConfirmedAt),
	}

	if c.orders != nil {
		if err := c.orders.CreateOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("save order %s: %w", order.Number, err)
		}
	}
	if c.events != nil {
		if err := c.events.PublishOrderPlaced(ctx, *order); err != nil {
			c.log.Warn("publish order event failed", zap.String("order", order.Number), zap.Error(err))
		}
	}
	return order, nil
}

// StartNewOrder leaves the confirmation view.
func (c *Controller) StartNewOrder() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	if c.busy {
		return ErrBusy
	}
	if c.stage != domain.StageConfirmed {
		return fmt.Errorf("%w: new order from %s", ErrInvalidTransition, c.stage)
	}
	c.confirmation = nil
	c.setStageLocked(domain.StageReviewing)
	c.reconcileLocked()
	return nil
}

// Close unsubscribes from the identity provider. It is safe to call more
// than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.authCh = nil
}

// syncLocked applies pending auth notifications and derives the stage from
// the cart and auth state. It must be called with c.mu held.
func (c *Controller) syncLocked() {
	for drained := false; !drained; {
		select {
		case change, ok := <-c.authCh:
			if !ok {
				c.authCh = nil
				drained = true
				break
			}
			c.user = change.User
		default:
			drained = true
		}
	}
	c.reconcileLocked()
}

func (c *Controller) reconcileLocked() {
	empty := c.cart.Len() == 0

	if c.stage == domain.StageConfirmed {
		if empty {
			return
		}
		// Items added after a confirmation begin a new order.
		c.confirmation = nil
	}

	switch {
	case empty:
		c.setStageLocked(domain.StageReviewing)
	case c.user == nil:
		c.setStageLocked(domain.StageAwaitingAuth)
	case c.stage != domain.StageSummary && c.stage != domain.StagePayment:
		c.setStageLocked(domain.StageSummary)
	}
}

func (c *Controller) setStageLocked(s domain.Stage) {
	if c.stage == s {
		return
	}
	c.log.Debug("checkout stage", zap.String("from", string(c.stage)), zap.String("to", string(s)))
	c.stage = s
}
