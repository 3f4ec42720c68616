// Package identity defines the identity-backend collaborator: the session
// model, the client interface the auth controller is written against, and two
// implementations (REST and in-memory). Every backend failure is mapped into
// the autherr taxonomy at the point of call, so nothing above this package
// ever sees a raw transport error.
package identity

import (
	"context"
	"time"
)

// Session is a read-only snapshot of the backend's authenticated session.
// The backend owns it; holders must treat it as invalidated whenever a
// session-change signal fires.
type Session struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	PhotoURL      string
	PhoneNumber   string
}

// Client is the identity-backend collaborator.
//
// Contract:
//   - SignIn/SignUp: authenticate or create the account; on success the
//     session-change feed fires with the new non-nil session.
//   - SignOut: drops the session; the feed fires with nil.
//   - SendPasswordReset: asks the backend to email a reset link.
//   - OnSessionChange: registers cb and returns an unsubscribe func; cb may
//     be invoked from a background goroutine.
//   - CurrentSession: latest known session, nil when signed out.
//   - GetDocument/SetDocument: the backend's document store, addressed by
//     collection and document id.
//   - UpdateDisplayName: updates the signed-in account's display name.
//
// All blocking methods honor context cancellation. Errors carry autherr codes.
type Client interface {
	SignIn(ctx context.Context, identifier, secret string) (*Session, error)
	SignUp(ctx context.Context, identifier, secret string) (*Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, identifier string) error
	OnSessionChange(cb func(*Session)) (unsubscribe func())
	CurrentSession() *Session
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	SetDocument(ctx context.Context, collection, id string, fields map[string]any) error
	UpdateDisplayName(ctx context.Context, name string) error
}

// sessionFeed implements the subscriber half of OnSessionChange, shared by
// both client implementations.
type sessionFeed struct {
	nextID      int
	subscribers map[int]func(*Session)
}

func newSessionFeed() *sessionFeed {
	return &sessionFeed{subscribers: make(map[int]func(*Session))}
}

// subscribe registers cb and returns a removal func. Callers hold their own
// lock around both subscribe and the returned func.
func (f *sessionFeed) subscribe(cb func(*Session)) func() {
	id := f.nextID
	f.nextID++
	f.subscribers[id] = cb
	return func() { delete(f.subscribers, id) }
}

func (f *sessionFeed) snapshot() []func(*Session) {
	cbs := make([]func(*Session), 0, len(f.subscribers))
	for _, cb := range f.subscribers {
		cbs = append(cbs, cb)
	}
	return cbs
}
