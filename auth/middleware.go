// Package auth, HTTP middleware. WithSession is the per-request pipeline
// stage that turns the opaque session cookie into a request-scoped session
// and current user; RequireUser gates the authenticated HTML routes.
package auth

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/user/wanderlust-go/config"
	"github.com/user/wanderlust-go/sessions"
)

// UserSource is the slice of the auth service the middleware needs: turning
// a stored user id back into a User. Kept as an interface so middleware
// tests can run without a database.
type UserSource interface {
	GetUser(ctx context.Context, id int) (*User, error)
}

// SessionMiddleware resolves the session cookie on every request. Every
// visitor gets a session — anonymous ones carry flash messages too — and a
// session that encodes a logged-in user is deserialized into the request
// context as the current user.
type SessionMiddleware struct {
	store         sessions.Store
	codec         *sessions.Codec
	users         UserSource
	lifetime      time.Duration
	touchInterval time.Duration
}

// NewSessionMiddleware wires the middleware to its store, cookie codec and
// user source.
func NewSessionMiddleware(store sessions.Store, codec *sessions.Codec, users UserSource, cfg *config.SessionConfig) *SessionMiddleware {
	return &SessionMiddleware{
		store:         store,
		codec:         codec,
		users:         users,
		lifetime:      cfg.Lifetime,
		touchInterval: cfg.TouchInterval,
	}
}

// Handler is the middleware itself, in chi's func(http.Handler) http.Handler
// shape.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session := m.resolve(w, r)
		if session == nil {
			// Session store unavailable. The request still proceeds —
			// anonymously and flash-less — rather than failing the page.
			next.ServeHTTP(w, r)
			return
		}
		ctx = WithSession(ctx, session)

		if session.LoggedIn() {
			user, err := m.users.GetUser(ctx, *session.UserID)
			if err == nil {
				ctx = WithUser(ctx, user)
			} else {
				// The account behind the session is gone; demote the
				// session to anonymous instead of serving a ghost user.
				log.Printf("session %s references missing user %d: %v", session.Token, *session.UserID, err)
				_ = m.store.ClearUser(ctx, session.Token)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve finds the request's live session, creating a fresh anonymous one
// when the cookie is absent, tampered with, or points at an expired row.
// Returns nil only when the store itself is failing.
func (m *SessionMiddleware) resolve(w http.ResponseWriter, r *http.Request) *sessions.Session {
	ctx := r.Context()

	if token, err := m.codec.TokenFromRequest(r); err == nil {
		session, err := m.store.Get(ctx, token)
		if err == nil {
			m.touch(ctx, w, session)
			return session
		}
		if err != sessions.ErrNoSession {
			log.Printf("session lookup failed: %v", err)
			return nil
		}
		// Unknown or expired token: fall through and start over.
	}

	session, err := m.store.Create(ctx)
	if err != nil {
		log.Printf("session create failed: %v", err)
		return nil
	}
	m.codec.SetCookie(w, session)
	return session
}

// touch lazily refreshes the session's expiry. The row is only rewritten
// once more than touchInterval of the lifetime has been consumed, so a busy
// session costs one session write per touchInterval instead of one per
// request. The tradeoff: the stored expiry may lag true last-access by up to
// touchInterval.
func (m *SessionMiddleware) touch(ctx context.Context, w http.ResponseWriter, session *sessions.Session) {
	now := time.Now()
	fullExpiry := now.Add(m.lifetime)
	if session.ExpiresAt.After(fullExpiry.Add(-m.touchInterval)) {
		return
	}
	if err := m.store.Touch(ctx, session.Token, fullExpiry); err != nil {
		// A failed touch is harmless until the session actually expires.
		log.Printf("session touch failed: %v", err)
		return
	}
	session.ExpiresAt = fullExpiry
	m.codec.SetCookie(w, session)
}

// RequireUser gates routes that need a logged-in user. Anonymous visitors
// are flashed an explanation and redirected to the login page — the
// browser-friendly rendering of a 401.
func RequireUser(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFrom(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if session, ok := SessionFrom(r.Context()); ok {
				_ = store.AddFlash(r.Context(), session.Token, sessions.Flash{
					Kind:    sessions.FlashError,
					Message: "You must be logged in first!",
				})
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}
