package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/copywriter-backend/internal/api/handlers"
	"github.com/baharkarakas/copywriter-backend/internal/auth"
	"github.com/baharkarakas/copywriter-backend/internal/config"
	"github.com/baharkarakas/copywriter-backend/internal/metrics"
	"github.com/baharkarakas/copywriter-backend/internal/middleware"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/baharkarakas/copywriter-backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	TM         *auth.TokenManager
	BalanceSvc *services.BalanceService
	GenSvc     *services.GenerationService
	HistorySvc *services.HistoryService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(d.TM, d.Cfg.Env)
	genH := handlers.NewGenerationHandler(d.GenSvc, d.HistorySvc)
	balH := handlers.NewBalanceHandler(d.BalanceSvc)
	authMW := middleware.NewAuthMiddleware(d.TM, d.Cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.Cfg.RateRPS, d.Cfg.RateBurst))
			r.Post("/auth/login", authH.Login)
			r.Post("/auth/refresh", authH.Refresh)
		})

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RateLimit(d.Cfg.RateRPS, d.Cfg.RateBurst))

			r.Route("/generate", func(r chi.Router) {
				for _, ct := range models.ContentTypes() {
					r.Post("/"+string(ct), genH.Generate(ct))
				}
				r.Get("/history", genH.HistoryList)
				r.Get("/stats", genH.Stats)
				r.Get("/{id}", genH.Get)
				r.Delete("/{id}", genH.Delete)
			})

			r.Get("/balance", balH.Current)

			r.With(middleware.RequireRole("admin")).
				Post("/admin/balances/{userID}/credit", balH.Credit)
		})
	})

	return r
}
