package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "jobportal/internal/errors"
)

// Counter increments a fixed-window counter and reports the new count and
// the time left in the window. *cache.Client implements it on Redis.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Rule is a request budget per client for one route group.
type Rule struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Default budgets.
var (
	GeneralRule = Rule{Name: "general", Limit: 100, Window: 15 * time.Minute}
	AuthRule    = Rule{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	UploadRule  = Rule{Name: "upload", Limit: 20, Window: time.Hour}
)

// RateLimit rejects clients that exceed rule within its window with
// ErrRateLimited. When counter is nil or fails, an in-process token bucket
// with the same budget takes over, so a Redis outage degrades to
// per-instance limits.
func RateLimit(counter Counter, rule Rule, log zerolog.Logger) echo.MiddlewareFunc {
	local := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(rule.Limit) / rule.Window.Seconds()),
		Burst:     int(rule.Limit),
		ExpiresIn: rule.Window,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(rule, c)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))

			if counter != nil {
				count, left, err := counter.Incr(c.Request().Context(), key, rule.Window)
				if err == nil {
					h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(rule.Limit-count, 0), 10))
					if count > rule.Limit {
						return limited(h, left)
					}
					return next(c)
				}
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, using local bucket")
			}

			if ok, _ := local.Allow(key); !ok {
				return limited(h, rule.Window/time.Duration(rule.Limit))
			}
			return next(c)
		}
	}
}

func limited(h http.Header, retryAfter time.Duration) error {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	h.Set("Retry-After", strconv.Itoa(secs))
	return apperrors.ErrRateLimited
}

func rateKey(rule Rule, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{"ratelimit", rule.Name, ip}, ":")
}
