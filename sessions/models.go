// Package sessions implements the database-backed session store. Each
// browser holds an opaque token in a signed cookie; the token keys a row in
// the sessions table carrying the logged-in user (if any), the one-shot flash
// messages queued for the next render, and a TTL-based expiry. Expired rows
// are garbage-collected by the background cleaner.
package sessions

import (
	"errors"
	"time"
)

// Flash kinds. The rendered layout colors these differently; handlers only
// ever queue these two.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message queued by one request and surfaced on the very
// next rendered page. Delivery is at-most-once: a popped flash is gone even
// if the client abandons the redirect that would have shown it.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session represents one row of the sessions table. UserID is nil for
// anonymous sessions: every visitor gets a session (it carries their flash
// messages) whether or not they are logged in.
type Session struct {
	Token     string
	UserID    *int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoggedIn reports whether the session is bound to a user.
func (s *Session) LoggedIn() bool {
	return s.UserID != nil
}

// ExpiredAt reports whether the session is past its TTL at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ErrNoSession is returned by Store.Get when the token resolves to no live
// session — unknown, deleted, or already expired. Callers treat all three
// the same way: the request proceeds anonymously with a fresh session.
var ErrNoSession = errors.New("session not found")
