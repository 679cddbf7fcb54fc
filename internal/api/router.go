package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ratewise/store-ratings/internal/api/handlers"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/config"
	"github.com/ratewise/store-ratings/internal/metrics"
	"github.com/ratewise/store-ratings/internal/middleware"
	"github.com/ratewise/store-ratings/internal/models"
	"github.com/ratewise/store-ratings/internal/services"
)

type RouterDeps struct {
	Cfg       config.Config
	TM        *auth.TokenManager
	AuthSvc   *services.AuthService
	AdminSvc  *services.AdminService
	RatingSvc *services.RatingService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RequestLog, middleware.Recover, middleware.RateLimit(d.Cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authH := handlers.NewAuthHandler(d.AuthSvc)
	adminH := handlers.NewAdminHandler(d.AdminSvc)
	ownerH := handlers.NewOwnerHandler(d.RatingSvc)
	userH := handlers.NewUserHandler(d.RatingSvc)
	authMW := middleware.NewAuthMiddleware(d.TM)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authH.Signup)
			r.Post("/login", authH.Login)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/reset-password", authH.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authMW.Auth)
				r.Patch("/change-password", authH.ChangePassword)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RequireRole(models.RoleAdmin))

			r.Post("/users", adminH.CreateUser)
			r.Get("/users", adminH.ListUsers)
			r.Get("/users/{id}", adminH.GetUser)
			r.Delete("/users/{id}", adminH.DeleteUser)
			r.Patch("/users/{id}/role", adminH.ChangeRole)

			r.Post("/stores", adminH.CreateStore)
			r.Get("/stores", adminH.ListStores)
			r.Delete("/stores/{id}", adminH.DeleteStore)

			r.Get("/reports/users", adminH.UsersReport)
			r.Get("/reports/stores", adminH.StoresReport)
			r.Get("/dashboard", adminH.Dashboard)
		})

		r.Route("/owner", func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RequireRole(models.RoleOwner))
			r.Get("/dashboard", ownerH.Dashboard)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RequireRole(models.RoleUser))
			r.Get("/stores", userH.ListStores)
			r.Post("/ratings", userH.RateStore)
		})
	})

	return r
}
