package listings

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/render"
	"github.com/user/wanderlust-go/reviews"
	"github.com/user/wanderlust-go/sessions"
)

// Handlers serves the HTML CRUD routes for listings. It delegates business
// rules to the listing service, pulls the listing's reviews for the detail
// page, queues flash messages, and renders or redirects.
type Handlers struct {
	service  Service
	reviews  reviews.Service
	store    sessions.Store
	renderer *render.Renderer
}

// NewHandlers wires the listing handlers to their dependencies.
func NewHandlers(service Service, reviewService reviews.Service, store sessions.Store, renderer *render.Renderer) *Handlers {
	return &Handlers{service: service, reviews: reviewService, store: store, renderer: renderer}
}

// RegisterRoutes mounts the listing routes. requireUser gates everything
// that creates or mutates; index and show stay public.
func (h *Handlers) RegisterRoutes(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Get("/", h.index)
	r.With(requireUser).Get("/new", h.newForm)
	r.With(requireUser).Post("/", h.create)
	r.Get("/{listingID}", h.show)
	r.With(requireUser).Get("/{listingID}/edit", h.editForm)
	r.With(requireUser).Put("/{listingID}", h.update)
	r.With(requireUser).Delete("/{listingID}", h.delete)
}

// indexContent, showContent and editContent are the page payloads handed to
// the renderer.
type indexContent struct {
	Listings []Listing
}

type showContent struct {
	Listing *Listing
	Reviews []reviews.Review
	IsOwner bool
}

type editContent struct {
	Listing *Listing
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	h.renderer.HTML(w, r, http.StatusOK, "listings/index.html", indexContent{Listings: all})
}

func (h *Handlers) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.HTML(w, r, http.StatusOK, "listings/new.html", nil)
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperror.NewAuthError("You must be logged in first!", nil))
		return
	}

	form, err := ParseListingForm(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	listing, err := h.service.Create(r.Context(), user.ID, form)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.flash(r, sessions.FlashSuccess, "New Listing Created!")
	http.Redirect(w, r, fmt.Sprintf("/listings/%d", listing.ID), http.StatusSeeOther)
}

func (h *Handlers) show(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	listingReviews, err := h.reviews.ListForListing(r.Context(), id)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	content := showContent{Listing: listing, Reviews: listingReviews}
	if user, ok := auth.UserFrom(r.Context()); ok {
		content.IsOwner = user.ID == listing.OwnerID
	}
	h.renderer.HTML(w, r, http.StatusOK, "listings/show.html", content)
}

func (h *Handlers) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	// The form is only shown to the owner; the actual enforcement happens
	// again in the service on submit.
	if user, ok := auth.UserFrom(r.Context()); !ok || user.ID != listing.OwnerID {
		h.renderer.Error(w, r, apperror.NewForbiddenError("You are not the owner of this listing", nil))
		return
	}
	h.renderer.HTML(w, r, http.StatusOK, "listings/edit.html", editContent{Listing: listing})
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperror.NewAuthError("You must be logged in first!", nil))
		return
	}
	id, err := listingID(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	form, err := ParseListingForm(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	if _, err := h.service.Update(r.Context(), id, user.ID, form); err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.flash(r, sessions.FlashSuccess, "Listing Updated!")
	http.Redirect(w, r, fmt.Sprintf("/listings/%d", id), http.StatusSeeOther)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperror.NewAuthError("You must be logged in first!", nil))
		return
	}
	id, err := listingID(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.flash(r, sessions.FlashSuccess, "Listing Deleted!")
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

// flash queues a one-shot message on the request's session; a request
// without a session (store outage) just loses the nicety.
func (h *Handlers) flash(r *http.Request, kind, message string) {
	if session, ok := auth.SessionFrom(r.Context()); ok {
		_ = h.store.AddFlash(r.Context(), session.Token, sessions.Flash{Kind: kind, Message: message})
	}
}

// listingID parses the {listingID} route parameter. A non-numeric id can
// only come from a hand-typed URL, and resolves the same way as an unknown
// one: 404, never a crash.
func listingID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "listingID"))
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError("Listing you requested does not exist!", err)
	}
	return id, nil
}
