package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/response"
)

type Limiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c echo.Context) string

func ByIP(c echo.Context) string {
	return c.RealIP()
}

// ByUser falls back to the client IP on unauthenticated routes.
func ByUser(c echo.Context) string {
	if uid, ok := c.Get(KeyUID).(string); ok && uid != "" {
		return uid
	}
	return c.RealIP()
}

// RateLimit counts each request against action for the key chosen by key.
func RateLimit(limiter Limiter, action string, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if ok, wait := limiter.Allow(k, action); !ok {
				seconds := int(wait.Seconds()) + 1
				logger.Warn("rate limit hit: action=%s key=%s retry_after=%ds", action, k, seconds)
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, retry in %d seconds", seconds)))
			}
			return next(c)
		}
	}
}
