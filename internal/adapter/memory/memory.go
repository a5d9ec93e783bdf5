// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"florist/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	sessions map[string]*domain.Session
	carts    map[string][]domain.CartLine
	orders   []domain.Order

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		carts:    make(map[string][]domain.CartLine),
	}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository    = (*DB)(nil)
	_ domain.CartRepository    = (*DB)(nil)
	_ domain.OrderRepository   = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// --- UserRepository ---

// GetByEmail retrieves a user by email, ignoring case.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return nil, domain.ErrDuplicateUser
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// --- CartRepository ---

// LoadCart returns the stored lines of a session's cart, or nil.
func (db *DB) LoadCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines, ok := db.carts[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

// SaveCart replaces the stored lines of a session's cart.
func (db *DB) SaveCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := make([]domain.CartLine, len(lines))
	copy(stored, lines)
	db.carts[sessionID] = stored
	return nil
}

// DeleteCart removes a session's cart.
func (db *DB) DeleteCart(ctx context.Context, sessionID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.carts, sessionID)
	return nil
}

// --- OrderRepository ---

// CreateOrder stores an order.
func (db *DB) CreateOrder(ctx context.Context, o *domain.Order) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *o
	stored.Lines = make([]domain.CartLine, len(o.Lines))
	copy(stored.Lines, o.Lines)
	db.orders = append(db.orders, stored)
	return nil
}

// ListOrdersByUser returns a user's orders, newest first.
func (db *DB) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.Order
	for _, o := range db.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ConfirmedAt.After(result[j].ConfirmedAt)
	})
	return result, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
