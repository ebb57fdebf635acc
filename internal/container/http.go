package container

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/auth"
	"github.com/serroba/linkstats/internal/handlers"
	"github.com/serroba/linkstats/internal/health"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/metrics"
	"github.com/serroba/linkstats/internal/middleware"
	"github.com/serroba/linkstats/internal/redirect"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// HTTPPackage provides the *chi.Mux and the huma.API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(
			chimw.RequestID,
			middleware.RequestLogger(do.MustInvoke[*zap.Logger](i)),
			chimw.Recoverer,
		)
		router.Handle("/metrics", metrics.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		issuer := do.MustInvoke[*auth.Issuer](i)
		service := do.MustInvoke[*shortener.Service](i)

		api := humachi.New(router, huma.DefaultConfig("Link Shortener", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestContext(issuer, logger),
			middleware.Timeout(time.Duration(opts.RequestTimeoutSeconds)*time.Second),
		)

		handlers.RegisterRoutes(api,
			handlers.NewURLHandler(
				service,
				do.MustInvoke[*redirect.Resolver](i),
				do.MustInvoke[messaging.Publish[analytics.LinkCreatedEvent]](i),
				logger,
			),
			handlers.NewLinksHandler(service, do.MustInvoke[*analytics.Aggregator](i), nil, logger),
			handlers.NewSessionHandler(issuer, logger),
		)
		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[health.Checks](i)))

		return api, nil
	})
}
