// Package api binds the marker lifecycle and account operations to an HTTP
// JSON surface using the chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wangkuke/MapConnect/internal/auth"
	"github.com/wangkuke/MapConnect/internal/clock"
	"github.com/wangkuke/MapConnect/internal/marker"
	"github.com/wangkuke/MapConnect/internal/metrics"
	"github.com/wangkuke/MapConnect/repository"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	secret  string
	handler *Handler
}

// NewRouter bundles the collaborators the HTTP surface needs.
func NewRouter(jwtSecret string, manager *marker.Manager, users repository.UserStoreI, clk clock.Clock) *Router {
	return &Router{
		secret:  jwtSecret,
		handler: &Handler{manager: manager, users: users, clk: clk, secret: jwtSecret},
	}
}

// Setup configures all HTTP routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger())
	// The browser frontend is served from a different origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public surface.
		r.Get("/markers", rt.handler.PublicFeed)
		r.Post("/register", rt.handler.Register)
		r.Post("/login", rt.handler.Login)
		r.Get("/users/{username}", rt.handler.PublicProfile)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(rt.secret))

			r.Post("/markers", rt.handler.CreateMarker)
			r.Get("/markers/{username}", rt.handler.OwnerMarkers)
			r.Put("/markers/{id}/status", rt.handler.SetMarkerStatus)
			r.Put("/profile", rt.handler.UpdateProfile)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/all-markers", rt.handler.AdminListMarkers)
				r.Put("/markers/{id}", rt.handler.AdminUpdateMarker)
				r.Delete("/markers/{id}", rt.handler.AdminDeleteMarker)
				r.Get("/all-users", rt.handler.AdminListUsers)
				r.Put("/users/{id}", rt.handler.AdminUpdateUser)
				r.Delete("/users/{id}", rt.handler.AdminDeleteUser)
			})
		})
	})

	return r
}
