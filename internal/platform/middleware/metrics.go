package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DanielGlez0/SCEP/internal/platform/metrics"
)

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, strconv.Itoa(statusOf(c, err)), time.Since(start))
			return err
		}
	}
}
