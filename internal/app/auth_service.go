// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"florist/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAlreadyRegistered indicates that a signup used an email that already has an account.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

const sessionTTL = 24 * time.Hour

type clientAuth struct {
	user    *domain.User
	session *domain.Session
	subs    map[chan domain.AuthChange]struct{}
}

// AuthService handles authentication and session management. It implements
// domain.IdentityProvider: every sign-in state change of a client is pushed
// to that client's subscribers.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*clientAuth
}

var _ domain.IdentityProvider = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		log:      log,
		now:      time.Now,
		clients:  make(map[string]*clientAuth),
	}
}

// SignUp registers a new account and signs the client in with it.
func (s *AuthService) SignUp(ctx context.Context, clientID, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hash))
	if errors.Is(err, domain.ErrDuplicateUser) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.startSession(ctx, clientID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignInWithPassword authenticates a user and creates a session for the client.
func (s *AuthService) SignInWithPassword(ctx context.Context, clientID, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.startSession(ctx, clientID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
// Unknown emails are provisioned without a password.
func (s *AuthService) LoginWithUser(ctx context.Context, clientID, email string) (string, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		user, err = s.users.Create(ctx, email, "")
		if errors.Is(err, domain.ErrDuplicateUser) {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
		}
		if err != nil {
			return "", fmt.Errorf("provision user: %w", err)
		}
		if user == nil {
			return "", ErrUserNotFound
		}
	}

	session, err := s.startSession(ctx, clientID, user)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// SignOut invalidates the client's session. Signing out an anonymous client
// is a no-op.
func (s *AuthService) SignOut(ctx context.Context, clientID string) error {
	s.mu.Lock()
	c := s.clients[clientID]
	var token string
	if c != nil && c.session != nil {
		token = c.session.Token
	}
	s.mu.Unlock()

	if token != "" {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	s.setState(clientID, nil, nil)
	return nil
}

// Resume attaches an existing session token, typically from a cookie, to the
// client. Invalid tokens leave the client anonymous.
func (s *AuthService) Resume(ctx context.Context, clientID, token string) (*domain.User, error) {
	user, session, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	s.setState(clientID, user, session)
	return user, nil
}

// ValidateSession checks if a session token is valid and returns its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	user, _, err := s.validate(ctx, token)
	return user, err
}

// Token returns the session token of the client, or "" when anonymous.
func (s *AuthService) Token(clientID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.clients[clientID]; c != nil && c.session != nil {
		return c.session.Token
	}
	return ""
}

// CurrentUser returns the signed-in user of the client, or nil.
func (s *AuthService) CurrentUser(clientID string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.clients[clientID]; c != nil {
		return c.user
	}
	return nil
}

// Subscribe returns a channel carrying the client's auth state. The current
// state is delivered immediately. Only the most recent undelivered change is
// kept, so a slow reader sees the latest state rather than every step.
func (s *AuthService) Subscribe(clientID string) (<-chan domain.AuthChange, func()) {
	ch := make(chan domain.AuthChange, 1)

	s.mu.Lock()
	c := s.client(clientID)
	c.subs[ch] = struct{}{}
	ch <- domain.AuthChange{User: c.user, Session: c.session}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.clients[clientID]; ok {
				delete(c.subs, ch)
				s.dropIfIdle(clientID, c)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Forget drops the in-memory state of a client without invalidating its
// session token, so the token can be resumed later.
func (s *AuthService) Forget(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[clientID]; ok && len(c.subs) == 0 {
		delete(s.clients, clientID)
	}
}

// PurgeExpired deletes every expired session from the repository.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	if err := s.sessions.DeleteExpired(ctx); err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	return nil
}

func (s *AuthService) validate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, nil, ErrUserNotFound
	}

	return user, session, nil
}

func (s *AuthService) startSession(ctx context.Context, clientID string, user *domain.User) (*domain.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, user.ID, token, session.ExpiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.setState(clientID, user, session)
	s.log.Debug("signed in", zap.String("client", clientID), zap.Int64("user_id", user.ID))
	return session, nil
}

func (s *AuthService) setState(clientID string, user *domain.User, session *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.client(clientID)
	c.user = user
	c.session = session

	change := domain.AuthChange{User: user, Session: session}
	for ch := range c.subs {
		// Replace any undelivered change. Sends happen under s.mu, so the
		// buffer is guaranteed to have room.
		select {
		case <-ch:
		default:
		}
		ch <- change
	}
}

// client must be called with s.mu held.
func (s *AuthService) client(clientID string) *clientAuth {
	c, ok := s.clients[clientID]
	if !ok {
		c = &clientAuth{subs: make(map[chan domain.AuthChange]struct{})}
		s.clients[clientID] = c
	}
	return c
}

// dropIfIdle must be called with s.mu held.
func (s *AuthService) dropIfIdle(clientID string, c *clientAuth) {
	if len(c.subs) == 0 && c.user == nil {
		delete(s.clients, clientID)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
