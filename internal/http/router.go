// Package http assembles the router: middleware stack, the /api/v1 surface
// and the operational endpoints.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wandertrails/tours-api/internal/config"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/handlers"
	"github.com/wandertrails/tours-api/internal/http/middleware"
	"github.com/wandertrails/tours-api/internal/http/response"
)

func NewRouter(h *handlers.Handlers, cfg *config.Config, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// credential endpoints get a tight window against brute force
	authLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Requests: cfg.Server.RateLimitRequests,
		Window:   cfg.Server.RateLimitWindow,
	})

	protect := middleware.Protect(h.Auth, cfg.IsProduction())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware())
				r.Post("/signup", h.Signup)
				r.Post("/login", h.Login)
				r.Post("/forgot-password", h.ForgotPassword)
			})
			r.Patch("/reset-password/{resetToken}", h.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Patch("/update-my-password", h.UpdateMyPassword)
				r.Patch("/update-me", h.UpdateMe)
				r.Delete("/delete-me", h.DeleteMe)
			})

			r.Group(func(r chi.Router) {
				r.Use(protect, middleware.RestrictTo(domain.RoleAdmin))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Patch("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/top-5-cheap", h.TopTours)
			r.Get("/stats", h.TourStats)
			r.Get("/monthly-plan/{year}", h.MonthlyPlan)

			r.With(protect).Get("/", h.ListTours)
			r.With(protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Post("/", h.CreateTour)

			r.Get("/{id}", h.GetTour)
			r.With(protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Patch("/{id}", h.UpdateTour)
			r.With(protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Delete("/{id}", h.DeleteTour)

			r.Route("/{tourID}/reviews", func(r chi.Router) {
				r.Get("/", h.ListReviews)
				r.With(protect, middleware.RestrictTo(domain.RoleUser)).Post("/", h.CreateReview)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.ListReviews)
			r.Get("/{id}", h.GetReview)
			r.With(protect).Patch("/{id}", h.UpdateReview)
			r.With(protect).Delete("/{id}", h.DeleteReview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Fail(w, http.StatusNotFound, fmt.Sprintf("can't find %s on this server", req.URL.Path))
	})

	return r
}
