package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/sessions"
)

func newRenderer(t *testing.T) (*Renderer, *sessions.MemoryStore) {
	t.Helper()
	store := sessions.NewMemoryStore(7 * 24 * time.Hour)
	rn, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rn, store
}

func sessionRequest(t *testing.T, store *sessions.MemoryStore) *http.Request {
	t.Helper()
	session, err := store.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	return r.WithContext(auth.WithSession(r.Context(), session))
}

func TestFlashRendersExactlyOnce(t *testing.T) {
	rn, store := newRenderer(t)
	req := sessionRequest(t, store)
	session, _ := auth.SessionFrom(req.Context())

	if err := store.AddFlash(req.Context(), session.Token, sessions.Flash{
		Kind: sessions.FlashSuccess, Message: "New Listing Created!",
	}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	rn.HTML(rec, req, http.StatusOK, "listings/index.html", struct{ Listings []any }{})
	if !strings.Contains(rec.Body.String(), "New Listing Created!") {
		t.Fatal("first render did not show the flash")
	}

	rec = httptest.NewRecorder()
	rn.HTML(rec, req, http.StatusOK, "listings/index.html", struct{ Listings []any }{})
	if strings.Contains(rec.Body.String(), "New Listing Created!") {
		t.Error("flash rendered a second time")
	}
}

func TestErrorDefaultsToInternal(t *testing.T) {
	rn, _ := newRenderer(t)

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()
	rn.Error(rec, req, errors.New("pq: connection refused on 10.0.0.3"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := rec.Body.String()
	if !strings.Contains(body, apperror.DefaultMessage) {
		t.Errorf("body missing the default message: %s", body)
	}
	if strings.Contains(body, "connection refused") {
		t.Error("driver detail leaked to the client")
	}
}

func TestErrorUsesVariantStatusAndMessage(t *testing.T) {
	rn, _ := newRenderer(t)

	req := httptest.NewRequest(http.MethodGet, "/listings/99", nil)
	rec := httptest.NewRecorder()
	rn.Error(rec, req, apperror.NewNotFoundError("Listing you requested does not exist!", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Listing you requested does not exist!") {
		t.Error("body missing the variant's public message")
	}
}

func TestNotFoundHandler(t *testing.T) {
	rn, _ := newRenderer(t)

	rec := httptest.NewRecorder()
	rn.NotFound()(rec, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Page Not Found!") {
		t.Error("body missing the 404 message")
	}
}
