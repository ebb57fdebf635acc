// Package redirect resolves short codes to their targets and records each visit.
package redirect

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/metrics"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// LinkFinder looks up links by code.
type LinkFinder interface {
	GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error)
}

// ClickRecorder records a visit to a link.
type ClickRecorder interface {
	Record(ctx context.Context, link *shortener.Link, visitor analytics.Visitor) (*analytics.ClickEvent, error)
}

// Resolver returns redirect targets. A target is only returned once the click is stored.
type Resolver struct {
	links  LinkFinder
	clicks ClickRecorder
	logger *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(links LinkFinder, clicks ClickRecorder, logger *zap.Logger) *Resolver {
	return &Resolver{
		links:  links,
		clicks: clicks,
		logger: logger,
	}
}

// Resolve returns the original URL for code. It returns shortener.ErrNotFound
// for unknown codes, in which case nothing is recorded.
func (r *Resolver) Resolve(ctx context.Context, code shortener.Code, visitor analytics.Visitor) (string, error) {
	link, err := r.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			metrics.Redirects.WithLabelValues(metrics.ResultNotFound).Inc()

			return "", err
		}

		metrics.Redirects.WithLabelValues(metrics.ResultError).Inc()

		return "", fmt.Errorf("lookup %s: %w", code, err)
	}

	if _, err := r.clicks.Record(ctx, link, visitor); err != nil {
		metrics.Redirects.WithLabelValues(metrics.ResultError).Inc()
		r.logger.Error("failed to record click",
			zap.String("code", string(code)),
			zap.Error(err),
		)

		return "", err
	}

	metrics.Redirects.WithLabelValues(metrics.ResultFound).Inc()

	return link.OriginalURL, nil
}
