package container

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/auth"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/redirect"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// ServicePackage provides the domain services: link service, click recorder,
// redirect resolver, statistics aggregator and token issuer.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*auth.Issuer, error) {
		opts := do.MustInvoke[*Options](i)

		secret := opts.JWTSecret
		if secret == "" {
			secret = uuid.NewString()

			do.MustInvoke[*zap.Logger](i).Warn("no jwt secret configured, owner tokens will not survive a restart")
		}

		return auth.NewIssuer(secret, time.Duration(opts.TokenTTLHours)*time.Hour), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Generator, error) {
		opts := do.MustInvoke[*Options](i)

		source, err := codeSource(opts.CodeSource, opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewGenerator(do.MustInvoke[shortener.Repository](i), source), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*shortener.Generator](i),
			do.MustInvoke[*Options](i).MaxCreateAttempts,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Recorder, error) {
		return analytics.NewRecorder(
			do.MustInvoke[analytics.ClickRepository](i),
			do.MustInvoke[messaging.Publish[analytics.LinkClickedEvent]](i),
			nil,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*redirect.Resolver, error) {
		return redirect.NewResolver(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*analytics.Recorder](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Aggregator, error) {
		opts := do.MustInvoke[*Options](i)

		loc, err := time.LoadLocation(opts.StatsTimezone)
		if err != nil {
			return nil, fmt.Errorf("stats timezone: %w", err)
		}

		// Postgres resolves the zone by name and knows no "Local".
		if loc == time.Local {
			return nil, fmt.Errorf("stats timezone: %q is not an IANA zone name", opts.StatsTimezone)
		}

		return analytics.NewAggregator(do.MustInvoke[analytics.ClickRepository](i), loc, analytics.DefaultWindowDays), nil
	})
}

func codeSource(name string, length int) (shortener.CodeSource, error) {
	switch name {
	case "", "uuid":
		return shortener.UUIDHexSource(), nil
	case "nanoid":
		return shortener.NanoidHexSource(length)
	default:
		return nil, fmt.Errorf("unknown code source %q", name)
	}
}
