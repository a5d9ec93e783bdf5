package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"florist/internal/domain"

	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// ShopSession is the state owned by one browser session: its cart and the
// checkout controller driving it.
type ShopSession struct {
	ID       string
	Cart     *domain.Cart
	Checkout *Controller

	lastSeen    time.Time
	unwatchCart func()
}

func (s *ShopSession) teardown() {
	if s.unwatchCart != nil {
		s.unwatchCart()
	}
	s.Checkout.Close()
}

// Storefront keeps the live shop sessions of the process.
type Storefront struct {
	carts   domain.CartRepository
	deps    CheckoutDeps
	idleTTL time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*ShopSession
}

// NewStorefront returns a storefront. carts may be nil, in which case carts
// live only as long as their session.
func NewStorefront(carts domain.CartRepository, deps CheckoutDeps, idleTTL time.Duration) *Storefront {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Storefront{
		carts:    carts,
		deps:     deps,
		idleTTL:  idleTTL,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*ShopSession),
	}
}

// Open returns the session with the given id, creating it on first use. A
// new session restores its cart from the repository and saves every later
// change back.
func (s *Storefront) Open(ctx context.Context, id string) (*ShopSession, error) {
	if id == "" {
		return nil, errors.New("empty session id")
	}
	if sess := s.touch(id); sess != nil {
		return sess, nil
	}

	var lines []domain.CartLine
	if s.carts != nil {
		var err error
		lines, err = s.carts.LoadCart(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have opened the session while the cart loaded.
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = s.now()
		return sess, nil
	}

	cart := domain.NewCart(lines...)
	sess := &ShopSession{
		ID:       id,
		Cart:     cart,
		Checkout: NewController(id, cart, s.deps),
		lastSeen: s.now(),
	}
	if s.carts != nil {
		sess.unwatchCart = cart.Subscribe(s.persister(id))
	}
	s.sessions[id] = sess
	s.log.Debug("session opened", zap.String("client", id), zap.Int("restored_lines", len(lines)))
	return sess, nil
}

func (s *Storefront) touch(id string) *ShopSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.lastSeen = s.now()
	return sess
}

// persister saves snapshots of one cart one at a time and drops any snapshot
// older than the last one stored.
func (s *Storefront) persister(id string) func(domain.CartSnapshot) {
	var (
		mu    sync.Mutex
		saved uint64
	)
	return func(snap domain.CartSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Version <= saved {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		var err error
		if len(snap.Lines) == 0 {
			err = s.carts.DeleteCart(ctx, id)
		} else {
			err = s.carts.SaveCart(ctx, id, snap.Lines)
		}
		if err != nil {
			s.log.Warn("persist cart failed", zap.String("client", id), zap.Error(err))
			return
		}
		saved = snap.Version
	}
}

// Close ends the session. The persisted cart is kept.
func (s *Storefront) Close(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.end(sess)
	}
}

// Sweep closes every session idle since before now minus the idle TTL and
// returns how many were closed.
func (s *Storefront) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	var idle []*ShopSession
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.end(sess)
	}
	if len(idle) > 0 {
		s.log.Info("swept idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Len returns the number of live sessions.
func (s *Storefront) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Storefront) end(sess *ShopSession) {
	sess.teardown()
	if f, ok := s.deps.Identity.(interface{ Forget(string) }); ok {
		f.Forget(sess.ID)
	}
}
