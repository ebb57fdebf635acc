package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

// DefaultMaxCreateAttempts bounds how often Shorten retries after an insert-time collision.
const DefaultMaxCreateAttempts = 5

// Service creates links and serves owner-scoped reads.
type Service struct {
	links       Repository
	codes       *Generator
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates a link service. maxAttempts below one falls back to DefaultMaxCreateAttempts.
func NewService(links Repository, codes *Generator, maxAttempts int, logger *zap.Logger) *Service {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxCreateAttempts
	}

	return &Service{
		links:       links,
		codes:       codes,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

// Shorten validates rawURL and stores it under a freshly generated code.
// Collisions reported by the store are retried with a new code.
func (s *Service) Shorten(ctx context.Context, rawURL string, owner OwnerID) (*Link, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link := &Link{
			Code:        code,
			OriginalURL: target,
			Owner:       owner,
			CreatedAt:   s.now().UTC(),
		}

		err = s.links.Create(ctx, link)
		if err == nil {
			metrics.LinksCreated.Inc()

			return link, nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		metrics.CodeCollisions.WithLabelValues(metrics.StageInsert).Inc()
		s.logger.Warn("short code collided on insert",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	return nil, ErrCodeSpaceExhausted
}

// Lookup returns the link stored under code.
func (s *Service) Lookup(ctx context.Context, code Code) (*Link, error) {
	return s.links.GetByCode(ctx, code)
}

// ListByOwner returns the owner's links, newest first.
func (s *Service) ListByOwner(ctx context.Context, owner OwnerID) ([]Link, error) {
	if owner.Anonymous() {
		return nil, ErrUnauthorized
	}

	return s.links.ListByOwner(ctx, owner)
}

// OwnedLink returns the link under code if owner created it.
func (s *Service) OwnedLink(ctx context.Context, code Code, owner OwnerID) (*Link, error) {
	if owner.Anonymous() {
		return nil, ErrUnauthorized
	}

	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !link.OwnedBy(owner) {
		return nil, ErrForbidden
	}

	return link, nil
}
