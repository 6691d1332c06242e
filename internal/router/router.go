package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elfogon/api/internal/config"
	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
	"github.com/elfogon/api/internal/handler"
	mw "github.com/elfogon/api/internal/middleware"
	"github.com/elfogon/api/internal/service"
	"github.com/elfogon/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Public routes carry no auth; staff routes require a valid token and
// the admin surface additionally requires the ADMIN role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // dev frontend
			"https://elfogon.mx",
			"https://admin.elfogon.mx",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Customer-facing routes (public)
	menuHandler := handler.NewMenuHandler(queries)
	menuHandler.RegisterRoutes(r)

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore)

	checkoutHandler := handler.NewCheckoutHandler(orderService, hub)
	checkoutHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Orders
		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		orderHandler.RegisterRoutes(r)

		// Arqueos
		arqueoService := service.NewArqueoService(queries)
		arqueoHandler := handler.NewArqueoHandler(arqueoService, queries, hub)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleCajero))
			arqueoHandler.RegisterRoutes(r)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			categoryHandler := handler.NewCategoryHandler(queries)
			categoryHandler.RegisterRoutes(r)

			productHandler := handler.NewProductHandler(queries)
			productHandler.RegisterRoutes(r)

			staffHandler := handler.NewStaffHandler(queries)
			staffHandler.RegisterRoutes(r)

			dashboardHandler := handler.NewDashboardHandler(queries)
			dashboardHandler.RegisterRoutes(r)
		})
	})

	return r
}
