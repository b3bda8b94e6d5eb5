package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/config"
	"github.com/user/wanderlust-go/sessions"
)

// fakeUsers is a UserSource over a fixed map.
type fakeUsers map[int]*User

func (f fakeUsers) GetUser(_ context.Context, id int) (*User, error) {
	if user, ok := f[id]; ok {
		return user, nil
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", id), nil)
}

func testSessionConfig() *config.SessionConfig {
	return &config.SessionConfig{
		Secret:        "test-secret",
		Lifetime:      7 * 24 * time.Hour,
		TouchInterval: 24 * time.Hour,
	}
}

func newTestMiddleware(store sessions.Store, users fakeUsers) (*SessionMiddleware, *sessions.Codec) {
	codec := sessions.NewCodec("test-secret")
	return NewSessionMiddleware(store, codec, users, testSessionConfig()), codec
}

// capture records what the downstream handler saw in its context.
type capture struct {
	session *sessions.Session
	user    *User
}

func captureHandler(c *capture) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.session, _ = SessionFrom(r.Context())
		c.user, _ = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddlewareCreatesAnonymousSession(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	mw, _ := newTestMiddleware(store, fakeUsers{})

	var got capture
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	if got.session == nil {
		t.Fatal("cookieless request should still get a session")
	}
	if got.session.LoggedIn() || got.user != nil {
		t.Error("fresh session should be anonymous")
	}
	// And the new token must have been set as a cookie.
	if len(rec.Result().Cookies()) == 0 {
		t.Error("middleware should set the session cookie")
	}
}

func TestSessionMiddlewareResolvesUser(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	users := fakeUsers{7: {ID: 7, Username: "ana"}}
	mw, codec := newTestMiddleware(store, users)

	anon, _ := store.Create(context.Background())
	bound, err := store.BindUser(context.Background(), anon.Token, 7)
	if err != nil {
		t.Fatal(err)
	}

	var got capture
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: codec.Encode(bound.Token)})
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	if got.user == nil || got.user.Username != "ana" {
		t.Fatalf("current user = %+v, want ana", got.user)
	}
}

func TestSessionMiddlewareIgnoresTamperedCookie(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	users := fakeUsers{7: {ID: 7, Username: "ana"}}
	mw, _ := newTestMiddleware(store, users)

	anon, _ := store.Create(context.Background())
	bound, _ := store.BindUser(context.Background(), anon.Token, 7)

	// Correct token, but signed with the wrong secret.
	forged := sessions.NewCodec("attacker-secret").Encode(bound.Token)

	var got capture
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: forged})
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	if got.user != nil {
		t.Error("a forged cookie must not authenticate")
	}
	if got.session != nil && got.session.Token == bound.Token {
		t.Error("a forged cookie must not resolve the victim's session")
	}
}

func TestSessionMiddlewareExpiredSessionIsAnonymous(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	users := fakeUsers{7: {ID: 7, Username: "ana"}}
	mw, codec := newTestMiddleware(store, users)

	anon, _ := store.Create(context.Background())
	bound, _ := store.BindUser(context.Background(), anon.Token, 7)
	// Age the session past its lifetime.
	base := time.Now()
	store.Now = func() time.Time { return base.Add(7*24*time.Hour + time.Minute) }

	var got capture
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: codec.Encode(bound.Token)})
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	if got.user != nil {
		t.Error("a session idle for over 7 days must no longer authenticate")
	}
	if got.session != nil && got.session.Token == bound.Token {
		t.Error("an expired session must be replaced, not revived")
	}
}

func TestSessionMiddlewareLazyTouch(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	mw, codec := newTestMiddleware(store, fakeUsers{})

	sess, _ := store.Create(context.Background())

	// A session refreshed moments ago is not rewritten.
	var got capture
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: codec.Encode(sess.Token)})
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	after, err := store.Get(context.Background(), sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Error("a fresh session should not be touched on every request")
	}

	// Once over a day of the lifetime is consumed, the expiry is pushed out.
	stale := time.Now().Add(7*24*time.Hour - 25*time.Hour)
	if err := store.Touch(context.Background(), sess.Token, stale); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/listings", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: codec.Encode(sess.Token)})
	mw.Handler(captureHandler(&got)).ServeHTTP(rec, r)

	after, err = store.Get(context.Background(), sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ExpiresAt.After(stale) {
		t.Error("a stale session should have its expiry refreshed")
	}
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	mw, _ := newTestMiddleware(store, fakeUsers{})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler must not run for anonymous requests")
	})
	handler := mw.Handler(RequireUser(store)(next))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/new", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect = %q, want /login", loc)
	}
}

func TestRequireUserPassesAuthenticated(t *testing.T) {
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	users := fakeUsers{7: {ID: 7, Username: "ana"}}
	mw, codec := newTestMiddleware(store, users)

	anon, _ := store.Create(context.Background())
	bound, _ := store.BindUser(context.Background(), anon.Token, 7)

	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })
	handler := mw.Handler(RequireUser(store)(next))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listings/new", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: codec.Encode(bound.Token)})
	handler.ServeHTTP(rec, r)

	if !ran {
		t.Error("authenticated request should reach the protected handler")
	}
}
