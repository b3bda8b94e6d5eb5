// Package users serves the HTML identity lifecycle: signup, login and
// logout. Credential checking itself lives in the auth service; this package
// owns the session side effects, in particular issuing a fresh session token
// at login so a pre-login token never becomes an authenticated one.
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/render"
	"github.com/user/wanderlust-go/sessions"
)

// Identity is the slice of the auth service these handlers need.
type Identity interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Authenticate(ctx context.Context, req auth.LoginRequest) (*auth.User, error)
}

type Handlers struct {
	identity Identity
	store    sessions.Store
	codec    *sessions.Codec
	renderer *render.Renderer
}

func NewHandlers(identity Identity, store sessions.Store, codec *sessions.Codec, renderer *render.Renderer) *Handlers {
	return &Handlers{identity: identity, store: store, codec: codec, renderer: renderer}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/register", h.registerForm)
	r.Post("/register", h.register)
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/logout", h.logout)
}

func (h *Handlers) registerForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.HTML(w, r, http.StatusOK, "users/register.html", nil)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, apperror.NewValidationError("malformed form submission", err))
		return
	}
	req := auth.RegisterRequest{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.identity.Register(r.Context(), req)
	if err != nil {
		h.formFailure(w, r, err, "/register")
		return
	}

	// Signup logs the new user straight in.
	if err := h.bind(w, r, user.ID, "Welcome to Wanderlust!"); err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (h *Handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.HTML(w, r, http.StatusOK, "users/login.html", nil)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, apperror.NewValidationError("malformed form submission", err))
		return
	}
	req := auth.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.identity.Authenticate(r.Context(), req)
	if err != nil {
		h.formFailure(w, r, err, "/login")
		return
	}

	if err := h.bind(w, r, user.ID, "Welcome back to Wanderlust!"); err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := auth.SessionFrom(r.Context()); ok && session.LoggedIn() {
		if err := h.store.ClearUser(r.Context(), session.Token); err != nil {
			h.renderer.Error(w, r, err)
			return
		}
		_ = h.store.AddFlash(r.Context(), session.Token, sessions.Flash{
			Kind:    sessions.FlashSuccess,
			Message: "You are logged out!",
		})
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

// bind attaches the user to the request's session. Binding rotates the
// session token, so the cookie is rewritten; any flashes queued before login
// ride along to the new session.
func (h *Handlers) bind(w http.ResponseWriter, r *http.Request, userID int, welcome string) error {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		// No session survived the middleware (store outage). Login still
		// works next request; nothing to bind now.
		return nil
	}
	bound, err := h.store.BindUser(r.Context(), session.Token, userID)
	if err != nil {
		return err
	}
	h.codec.SetCookie(w, bound)
	_ = h.store.AddFlash(r.Context(), bound.Token, sessions.Flash{
		Kind:    sessions.FlashSuccess,
		Message: welcome,
	})
	return nil
}

// formFailure sends recoverable signup/login errors back to the form as a
// flash; anything unexpected goes through the error page.
func (h *Handlers) formFailure(w http.ResponseWriter, r *http.Request, err error, back string) {
	appErr := apperror.From(err)
	switch {
	case apperror.IsValidationError(err), apperror.IsConflict(err), apperror.IsAuthError(err):
		if session, ok := auth.SessionFrom(r.Context()); ok {
			_ = h.store.AddFlash(r.Context(), session.Token, sessions.Flash{
				Kind:    sessions.FlashError,
				Message: appErr.PublicMessage(),
			})
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		h.renderer.Error(w, r, err)
	}
}
