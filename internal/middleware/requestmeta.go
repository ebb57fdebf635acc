package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/auth"
	"github.com/serroba/linkstats/internal/request"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// TokenParser resolves an owner token to the owner it names.
type TokenParser interface {
	Parse(token string) (shortener.OwnerID, error)
}

// RequestContext is a middleware that stores a request.Context holding the
// caller's identity, host, client IP, user-agent and referrer.
// Missing or invalid tokens leave the request anonymous.
func RequestContext(tokens TokenParser, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		rc := request.Context{
			Host:      ctx.Host(),
			ClientIP:  extractClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		if token := extractToken(ctx); token != "" {
			owner, err := tokens.Parse(token)
			if err != nil {
				logger.Debug("ignoring invalid owner token", zap.Error(err))
			} else {
				rc.Owner = owner
			}
		}

		next(huma.WithContext(ctx, request.WithContext(ctx.Context(), rc)))
	}
}

// extractToken prefers an Authorization bearer token over the cookie.
func extractToken(ctx huma.Context) string {
	if authz := ctx.Header("Authorization"); authz != "" {
		if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	cookies, err := http.ParseCookie(ctx.Header("Cookie"))
	if err != nil {
		return ""
	}

	for _, c := range cookies {
		if c.Name == auth.CookieName {
			return c.Value
		}
	}

	return ""
}

func extractClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
