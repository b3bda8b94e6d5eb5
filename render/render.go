// Package render draws the server-side HTML pages. Templates are embedded in
// the binary and parsed once at startup: each page template is combined with
// the shared layout, and every render receives a Page wrapper carrying the
// request's current user and its popped flash messages — the request-scoped
// stand-in for what the original template locals provided globally.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/sessions"
)

//go:embed templates
var templateFS embed.FS

// Page is the data envelope every template render receives.
type Page struct {
	// CurrentUser is nil for anonymous visitors.
	CurrentUser *auth.User
	// Flashes are the one-shot messages popped for this render. Popping
	// happens here, at render time, so a redirect chain delivers each flash
	// exactly once — on the page the user finally sees.
	Flashes []sessions.Flash
	// Content is the page-specific payload.
	Content any
}

// errorContent feeds the error page.
type errorContent struct {
	Status  int
	Message string
}

// Renderer holds the parsed template set and the session store it pops
// flash messages from.
type Renderer struct {
	pages map[string]*template.Template
	store sessions.Store
}

// New parses every page template against the shared layout. A malformed
// template is a startup error, not a request-time surprise.
func New(store sessions.Store) (*Renderer, error) {
	pages := make(map[string]*template.Template)

	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") || path.Base(p) == "layout.html" {
			return nil
		}
		name := strings.TrimPrefix(p, "templates/")
		t, err := template.ParseFS(templateFS, "templates/layout.html", p)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages, store: store}, nil
}

// HTML renders a page template inside the layout. The page is buffered so a
// template failure mid-render can still fall back to a clean error response
// instead of a half-written one.
func (rn *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, name string, content any) {
	t, ok := rn.pages[name]
	if !ok {
		log.Printf("render: unknown template %q", name)
		rn.Error(w, r, apperror.NewInternalError("", nil))
		return
	}

	page := Page{Content: content}
	if user, ok := auth.UserFrom(r.Context()); ok {
		page.CurrentUser = user
	}
	if session, ok := auth.SessionFrom(r.Context()); ok {
		flashes, err := rn.store.PopFlashes(r.Context(), session.Token)
		if err != nil {
			// Losing a flash is preferable to failing the page.
			log.Printf("render: popping flashes: %v", err)
		}
		page.Flashes = flashes
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		log.Printf("render: executing template %q: %v", name, err)
		rn.Error(w, r, apperror.NewInternalError("", nil))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error is the terminal error renderer for the HTML flow. Any error is
// coerced through the closed apperror set, so the client only ever sees the
// variant's status and public message — stack traces and driver errors stay
// in the logs.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("%s %s -> %d: %v", r.Method, r.URL.Path, appErr.StatusCode(), appErr)
	}

	t, ok := rn.pages["error.html"]
	if !ok {
		http.Error(w, appErr.PublicMessage(), appErr.StatusCode())
		return
	}

	page := Page{Content: errorContent{Status: appErr.StatusCode(), Message: appErr.PublicMessage()}}
	if user, ok := auth.UserFrom(r.Context()); ok {
		page.CurrentUser = user
	}

	var buf bytes.Buffer
	if terr := t.ExecuteTemplate(&buf, "layout", page); terr != nil {
		log.Printf("render: executing error template: %v", terr)
		http.Error(w, appErr.PublicMessage(), appErr.StatusCode())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(appErr.StatusCode())
	_, _ = buf.WriteTo(w)
}

// NotFound is the handler for unmatched routes, mounted as the router's 404.
func (rn *Renderer) NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rn.Error(w, r, apperror.NewNotFoundError("Page Not Found!", nil))
	}
}
