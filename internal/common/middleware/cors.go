package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS разрешает перечисленные источники; "*" открывает API для всех (dev).
func CORS(origins []string) fiber.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions},
		ExposeHeaders: []string{"Content-Disposition"},
	})
}
