package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/easymo/generation-control-plane/app"
	"github.com/easymo/generation-control-plane/handlers"
	appmw "github.com/easymo/generation-control-plane/middleware"
)

// propagateRequestID copies the chi request id into the application context
// key so services and auth middleware can log it.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = appmw.WithRequestID(ctx, reqID)
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(propagateRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var sqlDB *sql.DB
	if deps.DB != nil {
		sqlDB = deps.DB.DB
	}
	healthHandler := handlers.NewHealthHandler(sqlDB, deps.Logger)
	admissionHandler := handlers.NewAdmissionHandler(deps.Admission, deps.Logger)
	limitsHandler := handlers.NewLimitsHandler(deps.Campaigns, deps.AuditLogs, deps.Ledger, deps.Logger)
	metricsHandler := handlers.NewMetricsHandler(deps.Metrics, deps.Audit, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireServiceToken)
		}

		r.Route("/generation", func(r chi.Router) {
			r.Post("/admit", admissionHandler.HandleAdmit)
			r.Get("/limits/{campaignID}", limitsHandler.HandleGetLimits)
			r.Get("/limits/{campaignID}/decisions", limitsHandler.HandleGetDecisions)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/decisions", metricsHandler.HandleGetDecisionMetrics)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
