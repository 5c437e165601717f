package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/datingapp-be/internal/api/handlers"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/metrics"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/isdelr/datingapp-be/internal/websocket"
)

// Pinger reports store health for /readyz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Guard  *auth.Guard
	Issuer *auth.Issuer
	Users  services.UserServiceProvider
	Photos services.PhotoServiceProvider
	Events services.EventServiceProvider
	Hub    *websocket.Hub
	DB     Pinger

	CORSOrigins   []string
	SecureCookie  bool
	RatePerSecond int
	RateBurst     int
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location", "Pagination"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Photos, d.Issuer, d.SecureCookie)
	userHandler := handlers.NewUserHandler(d.Users, d.Photos)
	photoHandler := handlers.NewPhotoHandler(d.Photos)
	adminHandler := handlers.NewAdminHandler(d.Users)
	eventHandler := handlers.NewEventHandler(d.Events)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.CORSOrigins)

	limiter := NewRateLimiter(d.RatePerSecond, d.RateBurst)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(d.Guard.Authenticate)
			r.Use(trackActivity(d.Users))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Get("/me", userHandler.GetMe)
				r.Get("/{id}", userHandler.Get)

				r.Route("/{userId}/photos", func(r chi.Router) {
					r.Get("/{id}", photoHandler.Get)

					r.Group(func(r chi.Router) {
						r.Use(d.Guard.RequireOwner("userId"))
						r.Post("/", photoHandler.Upload)
						r.Post("/{id}/setMain", photoHandler.SetMain)
						r.Delete("/{id}", photoHandler.Delete)
					})
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(d.Guard.RequireRoles(services.RoleAdmin))
					r.Get("/usersWithRoles", adminHandler.UsersWithRoles)
					r.Post("/editRoles/{username}", adminHandler.EditRoles)
				})
				r.Group(func(r chi.Router) {
					r.Use(d.Guard.RequireRoles(services.RoleAdmin, services.RoleModerator))
					r.Get("/events", eventHandler.GetRecent)
					r.Get("/ws", wsHandler.Serve)
				})
			})
		})
	})

	return r
}
