package domain

import "context"

// AuthChange is pushed to identity subscribers whenever the signed-in user of
// a client changes. A nil User means the client is anonymous.
type AuthChange struct {
	User    *User
	Session *Session
}

// Authenticated reports whether the change carries a signed-in user.
func (c AuthChange) Authenticated() bool {
	return c.User != nil
}

// IdentityProvider signs customers in and out and notifies subscribers of the
// resulting auth state. Every call is scoped to a client id, usually the
// browsing session.
type IdentityProvider interface {
	SignUp(ctx context.Context, clientID, email, password string) (*User, error)
	SignInWithPassword(ctx context.Context, clientID, email, password string) (*User, error)
	SignOut(ctx context.Context, clientID string) error
	// Subscribe delivers the current state immediately and every later change
	// until the returned cancel func is called.
	Subscribe(clientID string) (<-chan AuthChange, func())
}
