package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"florist/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, email, passwordHash string) (*domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, passwordHash)
	}
	return &domain.User{ID: 1, Email: email, PasswordHash: passwordHash}, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, errors.New("not found")
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func hashedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &domain.User{ID: 1, Email: "ann@example.com", PasswordHash: string(hash)}
}

func TestAuthService_SignIn_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	user := hashedUser(t, password)

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email != "ann@example.com" {
				t.Errorf("expected normalized email, got %q", email)
			}
			return user, nil
		},
	}

	var created string
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
			if userID != 1 {
				t.Errorf("expected userID 1, got %d", userID)
			}
			if token == "" {
				t.Error("token should not be empty")
			}
			created = token
			return nil
		},
	}

	svc := NewAuthService(users, sessions, nil)
	got, err := svc.SignInWithPassword(ctx, "client-1", "  Ann@Example.com ", password)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != 1 {
		t.Errorf("expected user 1, got %d", got.ID)
	}
	if svc.Token("client-1") != created {
		t.Error("expected client token to match the created session")
	}
	if svc.CurrentUser("client-1") == nil {
		t.Error("expected client to be signed in")
	}
}

func TestAuthService_SignIn_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	user := hashedUser(t, "correctpass")

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, nil)

	_, err := svc.SignInWithPassword(ctx, "client-1", "ann@example.com", "wrongpass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if svc.Token("client-1") != "" {
		t.Error("expected no token after failed login")
	}
}

func TestAuthService_SignIn_PasswordlessUser(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: email}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, nil)

	_, err := svc.SignInWithPassword(context.Background(), "c", "sso@example.com", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_SignUp_Success(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		createFn: func(ctx context.Context, email, passwordHash string) (*domain.User, error) {
			if email != "new@example.com" {
				t.Errorf("expected email 'new@example.com', got %s", email)
			}
			if passwordHash == "" || passwordHash == "secret1" {
				t.Error("password should be stored hashed")
			}
			return &domain.User{ID: 7, Email: email, PasswordHash: passwordHash}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, nil)
	user, err := svc.SignUp(ctx, "client-1", "new@example.com", "secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID != 7 {
		t.Errorf("expected user 7, got %d", user.ID)
	}
	if svc.Token("client-1") == "" {
		t.Error("expected signup to sign the client in")
	}
}

func TestAuthService_SignUp_AlreadyRegistered(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
		createFn: func(ctx context.Context, email, passwordHash string) (*domain.User, error) {
			t.Error("create should not be called")
			return nil, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, nil)
	_, err := svc.SignUp(ctx, "client-1", "ann@example.com", "secret1")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestAuthService_SignUp_DuplicateOnCreate(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, email, passwordHash string) (*domain.User, error) {
			return nil, domain.ErrDuplicateUser
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, nil)
	_, err := svc.SignUp(context.Background(), "client-1", "ann@example.com", "secret1")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestAuthService_ValidateSession_Valid(t *testing.T) {
	ctx := context.Background()
	token := "validtoken"

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{
				ID:    1,
				Email: "ann@example.com",
			}, nil
		},
	}

	svc := NewAuthService(users, sessions, nil)
	user, err := svc.ValidateSession(ctx, token)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Errorf("expected email 'ann@example.com', got %s", user.Email)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	ctx := context.Background()
	token := "expiredtoken"

	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				ExpiresAt: time.Now().Add(-1 * time.Hour),
			}, nil
		},
		deleteFn: func(ctx context.Context, tok string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions, nil)

	_, err := svc.ValidateSession(ctx, token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
}

func TestAuthService_Resume(t *testing.T) {
	ctx := context.Background()
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: tok, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: 1, Email: "ann@example.com"}, nil
		},
	}
	svc := NewAuthService(users, sessions, nil)

	ch, cancel := svc.Subscribe("client-1")
	defer cancel()
	if first := <-ch; first.Authenticated() {
		t.Fatal("expected anonymous initial state")
	}

	if _, err := svc.Resume(ctx, "client-1", "cookie-token"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	change := <-ch
	if !change.Authenticated() || change.Session.Token != "cookie-token" {
		t.Errorf("expected resumed session, got %+v", change)
	}
}

func TestAuthService_LoginWithUser_Provisions(t *testing.T) {
	ctx := context.Background()

	created := false
	users := &mockUserRepo{
		createFn: func(ctx context.Context, email, passwordHash string) (*domain.User, error) {
			created = true
			if passwordHash != "" {
				t.Error("sso users should have no password")
			}
			return &domain.User{ID: 2, Email: email}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, nil)
	token, err := svc.LoginWithUser(ctx, "client-1", "SSO@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created {
		t.Error("expected user to be provisioned")
	}
	if token == "" || svc.Token("client-1") != token {
		t.Error("expected client to hold the new token")
	}
}

func TestAuthService_SignOut(t *testing.T) {
	ctx := context.Background()
	user := hashedUser(t, "secret1")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) { return user, nil },
	}

	var deleted string
	sessions := &mockSessionRepo{
		deleteFn: func(ctx context.Context, tok string) error {
			deleted = tok
			return nil
		},
	}
	svc := NewAuthService(users, sessions, nil)

	if _, err := svc.SignInWithPassword(ctx, "c", "ann@example.com", "secret1"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	token := svc.Token("c")

	if err := svc.SignOut(ctx, "c"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if deleted != token {
		t.Errorf("expected session %q deleted, got %q", token, deleted)
	}
	if svc.CurrentUser("c") != nil {
		t.Error("expected anonymous after sign out")
	}
}

func TestAuthService_Subscribe_LatestWins(t *testing.T) {
	ctx := context.Background()
	user := hashedUser(t, "secret1")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) { return user, nil },
	}
	svc := NewAuthService(users, &mockSessionRepo{}, nil)

	ch, cancel := svc.Subscribe("c")

	// Nobody reads while the state flips several times; publishing must not block.
	_, _ = svc.SignInWithPassword(ctx, "c", "ann@example.com", "secret1")
	_ = svc.SignOut(ctx, "c")
	_, _ = svc.SignInWithPassword(ctx, "c", "ann@example.com", "secret1")

	change := <-ch
	if !change.Authenticated() {
		t.Error("expected the latest state to be signed in")
	}
	select {
	case extra := <-ch:
		t.Errorf("expected a single buffered change, got another: %+v", extra)
	default:
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after cancel")
	}
}

func TestAuthService_PurgeExpired(t *testing.T) {
	called := false
	sessions := &mockSessionRepo{
		deleteExpiredFn: func(ctx context.Context) error {
			called = true
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, sessions, nil)
	if err := svc.PurgeExpired(context.Background()); err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if !called {
		t.Error("expected DeleteExpired to be called")
	}
}
