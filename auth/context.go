// Package auth, request-context plumbing. The session middleware resolves
// the cookie once per request and stashes the session and current user here;
// handlers read them back through these helpers instead of touching any
// process-wide state. Custom unexported key types keep these values from
// colliding with context values set by other packages.
package auth

import (
	"context"

	"github.com/user/wanderlust-go/sessions"
)

type sessionContextKey struct{}
type userContextKey struct{}

// WithSession returns a child context carrying the request's session.
func WithSession(ctx context.Context, session *sessions.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFrom extracts the request's session. The second return is false
// when the middleware could not establish one (store unavailable).
func SessionFrom(ctx context.Context) (*sessions.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*sessions.Session)
	return session, ok
}

// WithUser returns a child context carrying the authenticated user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFrom extracts the authenticated user; false for anonymous requests.
func UserFrom(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}
