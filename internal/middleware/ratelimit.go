package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/bedriftssok/internal/config"
)

var now = time.Now

// RateLimiter applies one shared token bucket to requests whose route matches
// one of paths. With no paths every route is limited.
func RateLimiter(cfg config.RateLimitConfig, paths ...string) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(perRequest), cfg.Requests)

	limited := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		limited[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(limited) > 0 {
				if _, ok := limited[c.Path()]; !ok {
					return next(c)
				}
			}
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":     "Rate limit exceeded",
					"details":   "too many requests, retry later",
					"timestamp": now().UTC().Format(TimestampFormat),
				})
			}
			return next(c)
		}
	}
}
