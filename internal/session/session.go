// Package session holds the visitor's identity in a single slot.
//
// A Session is exactly one of anonymous, user, admin or seller. Signing in
// as any kind overwrites the slot; there is no separate per-role state to
// clear.
package session

import (
	"context"
	"fmt"
	"net/http"
)

// Kind is the session variant.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindUser      Kind = "user"
	KindAdmin     Kind = "admin"
	KindSeller    Kind = "seller"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAnonymous, KindUser, KindAdmin, KindSeller:
		return true
	}
	return false
}

// Session identifies who is filling in the address form.
// Principal is empty exactly when Kind is anonymous.
type Session struct {
	Kind      Kind   `json:"kind"`
	Principal string `json:"principal,omitempty"`
}

// Anonymous returns the session of a visitor who has not signed in.
func Anonymous() Session {
	return Session{Kind: KindAnonymous}
}

// New returns a signed-in session of the given kind.
func New(kind Kind, principal string) (Session, error) {
	if !kind.Valid() {
		return Session{}, fmt.Errorf("session: unknown kind %q", kind)
	}
	if kind == KindAnonymous {
		return Anonymous(), nil
	}
	if principal == "" {
		return Session{}, fmt.Errorf("session: %s session needs a principal", kind)
	}
	return Session{Kind: kind, Principal: principal}, nil
}

// IsAnonymous reports whether nobody is signed in.
func (s Session) IsAnonymous() bool {
	return s.Kind == "" || s.Kind == KindAnonymous
}

// Store persists the session in one slot.
type Store interface {
	// Load returns the stored session, or Anonymous when there is none or it
	// cannot be trusted.
	Load(r *http.Request) Session
	Save(w http.ResponseWriter, s Session) error
	Clear(w http.ResponseWriter)
}

type contextKey string

const sessionContextKey contextKey = "session"

// WithContext returns a copy of ctx carrying s.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext returns the session in ctx, or Anonymous.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionContextKey).(Session); ok {
		return s
	}
	return Anonymous()
}
