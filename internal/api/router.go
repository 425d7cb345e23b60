package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/task-manager-api/internal/api/handlers"
	"github.com/dom/task-manager-api/internal/api/middleware"
	"github.com/dom/task-manager-api/internal/config"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/dom/task-manager-api/internal/service"
	"github.com/dom/task-manager-api/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

func NewRouter(services *service.Services, repos *repository.Repositories, hub *websocket.Hub, cfg *config.Config, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Set before any Route/Mount so sub-routers inherit them.
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, log)
	taskHandler := handlers.NewTaskHandler(services.Task, log)
	userHandler := handlers.NewUserHandler(services.User, log)
	healthHandler := handlers.NewHealthHandler(repos.Health, log)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, log)

	requireAuth := middleware.Auth(services.Resolver, log)

	// One limiter shared by both mounts of the auth routes.
	authLimit := httprate.LimitByIP(cfg.AuthRateLimit, cfg.AuthRateWindow)

	authRoutes := func(r chi.Router) {
		r.With(authLimit).Post("/register", authHandler.Register)
		r.With(authLimit).Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/me", authHandler.Me)
	}

	r.Route("/auth", authRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		r.Route("/auth", authRoutes)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
				r.Patch("/{id}/status", taskHandler.UpdateStatus)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})

			r.Get("/ws", wsHandler.Handle)
		})
	})

	return r
}
