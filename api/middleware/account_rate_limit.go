package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

// WindowLimiter answers whether another hit fits in the scope's current window.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AccountRateLimit caps requests per authenticated account. It must run after Auth.
func AccountRateLimit(name string, limiter WindowLimiter, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := principalScope(ctx)
			if scope == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, name+":"+scope, limit, window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   name,
						"attempts": count,
						"limit":    limit,
					}), "account.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
