package main

import (
	"context"
	"net/http"

	"github.com/crucial707/hci-catalog/internal/catalog"
	"github.com/crucial707/hci-catalog/internal/config"
	"github.com/crucial707/hci-catalog/internal/handlers"
	"github.com/crucial707/hci-catalog/internal/middleware"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// deps are the backends the router is built on.
type deps struct {
	Products repo.ProductStore
	Audit    repo.AuditLog
	// Ping backs /ready. Nil means always ready.
	Ping   func(context.Context) error
	Logger *zap.Logger
}

// newRouter wires middleware and routes. Mutating routes are rate limited
// and body-capped; reads are not.
func newRouter(d deps, cfg config.Config) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	query := catalog.NewQuery(d.Products, d.Audit)
	products := &handlers.ProductHandler{
		Coordinator: catalog.NewCoordinator(d.Products, d.Audit, logger),
		Query:       query,
		Logger:      logger,
	}
	audit := &handlers.AuditHandler{Query: query, Logger: logger}
	health := &handlers.HealthHandler{Ping: d.Ping}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", products.ListProducts)
		r.Get("/products/{id}", products.GetProduct)
		r.Get("/logs", audit.ListAudit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.PerMinute(cfg.RateLimitPerMinute))
			r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
			r.Post("/products", products.CreateProduct)
			r.Put("/products/{id}", products.UpdateProduct)
			r.Delete("/products/{id}", products.DeleteProduct)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "route not found", http.StatusNotFound)
	})

	return otelhttp.NewHandler(r, "hci-catalog-api",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
	)
}
