package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Pinger - зависимость, доступность которой определяет готовность.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// LivenessProbe проверяет, что приложение работает
func (h *HealthHandler) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessProbe проверяет подключение к базе рабочих пространств
func (h *HealthHandler) ReadinessProbe(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// StartupProbe проверяет, что приложение успешно запустилось
func (h *HealthHandler) StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}
