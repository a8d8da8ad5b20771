package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"process-monitor/internal/common/metrics"
)

// Metrics пишет длительность запроса в гистограмму по шаблону маршрута.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = ErrorResponse(err)
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
