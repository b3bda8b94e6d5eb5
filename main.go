// Wanderlust is a server-rendered listings application: visitors browse
// listings, registered users create them and review each other's, and a small
// JSON API mirrors the reads for programmatic clients. main wires the pieces
// together in dependency order and fails fast: a missing environment
// variable, an unreachable database or a failed migration stops the process
// before it ever accepts a request.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/user/wanderlust-go/api"
	"github.com/user/wanderlust-go/auth"
	"github.com/user/wanderlust-go/background"
	"github.com/user/wanderlust-go/config"
	"github.com/user/wanderlust-go/db"
	"github.com/user/wanderlust-go/listings"
	"github.com/user/wanderlust-go/render"
	"github.com/user/wanderlust-go/reviews"
	"github.com/user/wanderlust-go/sessions"
	"github.com/user/wanderlust-go/users"
	"github.com/user/wanderlust-go/web"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment itself.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	// Stores and services.
	sessionStore := sessions.NewPGStore(pool, cfg.Session)
	codec := sessions.NewCodec(cfg.Session.Secret)
	authService := auth.NewService(pool)
	listingService := listings.NewService(pool)
	reviewService := reviews.NewService(pool)
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth)

	renderer, err := render.New(sessionStore)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	// Handlers and middleware.
	sessionMiddleware := auth.NewSessionMiddleware(sessionStore, codec, authService, cfg.Session)
	requireUser := auth.RequireUser(sessionStore)
	listingHandlers := listings.NewHandlers(listingService, reviewService, sessionStore, renderer)
	reviewHandlers := reviews.NewHandlers(reviewService, sessionStore, renderer)
	userHandlers := users.NewHandlers(authService, sessionStore, codec, renderer)
	apiHandlers := api.NewHandlers(listingService, authService, tokenIssuer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(web.MethodOverride)
	r.Use(sessionMiddleware.Handler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/listings", http.StatusFound)
	})

	r.Route("/listings", func(r chi.Router) {
		listingHandlers.RegisterRoutes(r, requireUser)
		reviewHandlers.RegisterRoutes(r, requireUser)
	})
	userHandlers.RegisterRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		apiHandlers.RegisterRoutes(r, auth.BearerMiddleware(tokenIssuer, authService))
	})

	r.NotFound(renderer.NotFound())

	// Background session garbage collection.
	cleanupStop := make(chan struct{})
	cleanupDone := background.StartSessionCleanup(sessionStore, cfg.Session.CleanupInterval, cleanupStop)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	close(cleanupStop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	select {
	case <-cleanupDone:
	case <-ctx.Done():
		log.Println("session cleanup did not stop in time")
	}

	log.Println("server stopped")
}
