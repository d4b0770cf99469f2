package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/guadalajara-pos/api/internal/config"
	"github.com/guadalajara-pos/api/internal/handler"
	mw "github.com/guadalajara-pos/api/internal/middleware"
	"github.com/guadalajara-pos/api/internal/service"
	"github.com/guadalajara-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(
	cfg *config.Config,
	userStore handler.UserStore,
	orders *service.LifecycleStore,
	menuStore *service.MenuStore,
	coordinator *service.Coordinator,
	hub *ws.Hub,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(userStore, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		menuHandler := handler.NewMenuHandler(menuStore)
		r.Route("/menu", menuHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(orders, coordinator)
		r.Route("/orders", orderHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(userStore)
		r.Route("/profile", profileHandler.RegisterRoutes)
	})

	return r
}
