// Package api is the JSON surface under /api/v1. It reuses the same services
// as the HTML flow but authenticates with bearer tokens instead of session
// cookies, and renders errors as JSON through the same closed error set.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/listings"
)

// Authenticator is the credential check the token endpoint needs.
type Authenticator interface {
	Authenticate(ctx context.Context, req auth.LoginRequest) (*auth.User, error)
}

// Handlers serves the API routes.
type Handlers struct {
	listings listings.Service
	identity Authenticator
	issuer   *auth.TokenIssuer
}

func NewHandlers(listingService listings.Service, identity Authenticator, issuer *auth.TokenIssuer) *Handlers {
	return &Handlers{listings: listingService, identity: identity, issuer: issuer}
}

// RegisterRoutes mounts the API routes. requireBearer protects the write
// endpoints; reads are public.
func (h *Handlers) RegisterRoutes(r chi.Router, requireBearer func(http.Handler) http.Handler) {
	r.Post("/tokens", h.createToken)
	r.Get("/listings", h.listListings)
	r.Get("/listings/{listingID}", h.getListing)
	r.With(requireBearer).Post("/listings", h.createListing)
}

// tokenResponse is the payload returned for a successful credential
// exchange.
type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handlers) createToken(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteJSONError(w, apperror.NewValidationError("malformed JSON body", err))
		return
	}

	user, err := h.identity.Authenticate(r.Context(), req)
	if err != nil {
		auth.WriteJSONError(w, err)
		return
	}
	token, expiresAt, err := h.issuer.Issue(user)
	if err != nil {
		auth.WriteJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	all, err := h.listings.List(r.Context())
	if err != nil {
		auth.WriteJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "listingID"))
	if err != nil || id <= 0 {
		auth.WriteJSONError(w, apperror.NewNotFoundError("Listing you requested does not exist!", err))
		return
	}
	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		auth.WriteJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handlers) createListing(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		auth.WriteJSONError(w, apperror.NewAuthError("authentication required", nil))
		return
	}

	var form listings.ListingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		auth.WriteJSONError(w, apperror.NewValidationError("malformed JSON body", err))
		return
	}
	listing, err := h.listings.Create(r.Context(), user.ID, form)
	if err != nil {
		auth.WriteJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are gone; logging is all that is left.
		log.Printf("api: encoding response: %v", err)
	}
}
