package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/schematic"
	"process-monitor/internal/monitor/service"
	"process-monitor/internal/monitor/storage"
)

// ============================================================
// Monitor Handler
// ============================================================

type Handler struct {
	manager   *service.Manager
	artifacts storage.ArtifactStore
	renderer  *schematic.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

func New(manager *service.Manager, artifacts storage.ArtifactStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		manager:   manager,
		artifacts: artifacts,
		renderer:  schematic.NewRenderer(),
		logger:    logger,
		now:       time.Now,
	}
}

// workspace загружает рабочее пространство из параметра :id.
func (h *Handler) workspace(c fiber.Ctx) (*service.Workspace, error) {
	return h.manager.Get(c.Context(), c.Params("id"))
}

// decode разбирает JSON-тело запроса.
func decode(c fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return invalid("empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return invalid("invalid json: " + err.Error())
	}
	return nil
}

func invalid(details string) error {
	return apperrors.NewValidationError(details)
}

// intParam читает целое из параметра маршрута.
func intParam(c fiber.Ctx, name string) (int, error) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be an integer").WithMetadata(name, c.Params(name))
	}
	return v, nil
}
