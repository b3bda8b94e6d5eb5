package reviews

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/render"
	"github.com/user/wanderlust-go/sessions"
)

// Handlers serves the review routes, nested under a listing. Both routes
// require a logged-in user; who may delete which review is decided by the
// service.
type Handlers struct {
	service  Service
	store    sessions.Store
	renderer *render.Renderer
}

func NewHandlers(service Service, store sessions.Store, renderer *render.Renderer) *Handlers {
	return &Handlers{service: service, store: store, renderer: renderer}
}

// RegisterRoutes mounts the review routes on a router already rooted at
// /listings.
func (h *Handlers) RegisterRoutes(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.With(requireUser).Post("/{listingID}/reviews", h.create)
	r.With(requireUser).Delete("/{listingID}/reviews/{reviewID}", h.delete)
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperror.NewAuthError("You must be logged in first!", nil))
		return
	}
	listingID, err := routeID(r, "listingID", "Listing you requested does not exist!")
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	form, err := ParseReviewForm(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	if _, err := h.service.Create(r.Context(), listingID, user.ID, form); err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.flash(r, sessions.FlashSuccess, "New Review Created!")
	http.Redirect(w, r, fmt.Sprintf("/listings/%d", listingID), http.StatusSeeOther)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperror.NewAuthError("You must be logged in first!", nil))
		return
	}
	listingID, err := routeID(r, "listingID", "Listing you requested does not exist!")
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	reviewID, err := routeID(r, "reviewID", "Review you requested does not exist!")
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), listingID, reviewID, user.ID); err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.flash(r, sessions.FlashSuccess, "Review Deleted!")
	http.Redirect(w, r, fmt.Sprintf("/listings/%d", listingID), http.StatusSeeOther)
}

func (h *Handlers) flash(r *http.Request, kind, message string) {
	if session, ok := auth.SessionFrom(r.Context()); ok {
		_ = h.store.AddFlash(r.Context(), session.Token, sessions.Flash{Kind: kind, Message: message})
	}
}

func routeID(r *http.Request, param, missing string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError(missing, err)
	}
	return id, nil
}
