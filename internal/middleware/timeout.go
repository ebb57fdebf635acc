package middleware

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Timeout bounds each operation's context. A non-positive d disables it.
func Timeout(d time.Duration) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if d <= 0 {
			next(ctx)

			return
		}

		timeoutCtx, cancel := context.WithTimeout(ctx.Context(), d)
		defer cancel()

		next(huma.WithContext(ctx, timeoutCtx))
	}
}
