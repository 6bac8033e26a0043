// Package httpapi assembles the HTTP surface: global middleware, the public
// endpoints, and the authenticated /api tree.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"sacra360/internal/platform/metrics"
	"sacra360/internal/platform/middleware"
	"sacra360/pkg/platform/middleware/admin"
	"sacra360/pkg/platform/middleware/auth"
	"sacra360/pkg/platform/middleware/metadata"
	"sacra360/pkg/platform/middleware/request"
	"sacra360/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Routes are the module handlers. Each is mounted at its documented prefix.
type Routes struct {
	Auth         Registrar
	Catalog      Registrar
	Person       Registrar
	User         Registrar
	Sacrament    Registrar
	Registration Registrar
	Certificate  Registrar
	Document     Registrar
	Result       Registrar
}

type Config struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Tokens      auth.TokenValidator
	Health      http.HandlerFunc
	CORSOrigins []string
}

// NewRouter wires the middleware chain and every route.
func NewRouter(cfg Config, routes Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if cfg.Metrics != nil {
		r.Use(middleware.Instrument(cfg.Metrics))
	}
	r.Use(corsHandler(cfg.CORSOrigins))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if routes.Auth != nil {
		routes.Auth.Register(r)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.RequireAuth(cfg.Tokens, cfg.Logger))

		if routes.Catalog != nil {
			routes.Catalog.Register(api)
		}
		mount(api, "/personas", routes.Person)
		if routes.User != nil {
			api.Route("/usuarios", func(u chi.Router) {
				u.Use(admin.RequireAdmin(cfg.Logger))
				routes.User.Register(u)
			})
		}
		mount(api, "/sacramentos", routes.Sacrament)
		if routes.Registration != nil {
			routes.Registration.Register(api)
		}
		mount(api, "/certificados", routes.Certificate)
		mount(api, "/documentos", routes.Document)
		mount(api, "/resultados", routes.Result)
	})
	return r
}

func mount(r chi.Router, prefix string, reg Registrar) {
	if reg == nil {
		return
	}
	r.Route(prefix, reg.Register)
}

// corsHandler allows the configured origins. With none configured every
// origin is allowed, which suits local development.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           600,
	}).Handler
}
