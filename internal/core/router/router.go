// Package router builds the career-page HTTP API.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/career-locator/internal/core/config"
	"github.com/mohammed-shakir/career-locator/internal/core/health"
	"github.com/mohammed-shakir/career-locator/internal/core/middleware"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/core/validate"
	"github.com/mohammed-shakir/career-locator/internal/handoff"
	"github.com/mohammed-shakir/career-locator/internal/locate"
	h3mapper "github.com/mohammed-shakir/career-locator/internal/mapper/h3"
)

// CatalogLoader is satisfied by *storesource.Source.
type CatalogLoader interface {
	LoadOrFallback(ctx context.Context, suburl string) (model.Catalog, error)
}

// Resolver is satisfied by *locate.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, class locate.DeviceClass) locate.Result
}

// HandoffStarter is satisfied by *handoff.Service.
type HandoffStarter interface {
	Start(ctx context.Context, req handoff.Request) (handoff.Session, error)
}

type Deps struct {
	Logger   *slog.Logger
	Config   config.Config
	Catalog  CatalogLoader
	Resolver Resolver
	// nil disables cell annotation and clusters
	Mapper  *h3mapper.Mapper
	Handoff HandoffStarter
	// nil disables hand-off rate limiting
	Limiter *middleware.IPRateLimiter
	// peers whose forwarding headers name the visitor
	Proxies middleware.TrustedProxies
	Ready   health.ReadinessReporter
	Checks  []health.Dependency
	// served at /metrics when set
	Metrics http.Handler
}

type api struct {
	Deps
	v *validate.Validator
}

func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Ready == nil {
		d.Ready = health.Always
	}
	if d.Resolver == nil {
		d.Resolver = locate.NewResolver(nil)
	}
	a := &api{Deps: d, v: validate.New()}

	r := chi.NewRouter()
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Ready, d.Checks...))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/company", a.company)
		r.Get("/company/{suburl}", a.company)
		r.Get("/nearby", a.nearby)
		r.Get("/company/{suburl}/nearby", a.nearby)
		r.Post("/flow", a.flow)
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Middleware())
			}
			r.Post("/handoff", a.handoff)
		})
	})
	return r
}
