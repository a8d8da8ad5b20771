package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

const (
	devFormat  = "[${time}] ${status} - ${latency} ${method} ${path} | Content-Type: ${reqHeader:Content-Type}\n"
	prodFormat = "${time} ${ip} ${status} ${latency} ${method} ${path}\n"
)

// Logger возвращает журнал запросов. В production время пишется в UTC,
// добавляется адрес клиента и отключаются цвета.
func Logger(production bool) fiber.Handler {
	if production {
		return logger.New(logger.Config{
			Format:        prodFormat,
			TimeFormat:    time.RFC3339,
			TimeZone:      "UTC",
			DisableColors: true,
		})
	}
	return logger.New(logger.Config{
		Format:     devFormat,
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
