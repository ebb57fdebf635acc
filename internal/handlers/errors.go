package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// toHTTPError maps domain errors onto problem responses. Anything unexpected
// is logged and reported as a 500.
func toHTTPError(logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, shortener.ErrUnauthorized):
		return huma.Error401Unauthorized("owner token required")
	case errors.Is(err, shortener.ErrForbidden):
		return huma.Error403Forbidden("link belongs to another owner")
	case errors.Is(err, shortener.ErrCodeSpaceExhausted):
		return huma.Error503ServiceUnavailable("no free short code available, try again")
	default:
		logger.Error("request failed", zap.Error(err))

		return huma.Error500InternalServerError("internal error")
	}
}
