package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/service"
)

// ============================================================
// Analysis & Chat
// ============================================================

// Analyze запускает анализ линии моделью.
func (h *Handler) Analyze(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	a, err := w.Analyze(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *Handler) GetAnalysis(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	a := w.Analysis()
	if a == nil {
		return apperrors.NewNotFoundError("analysis", w.ID())
	}
	return c.JSON(a)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	var req chatRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	reply, err := w.Chat(c.Context(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(reply)
}

func (h *Handler) Transcript(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(w.Transcript())
}

// ============================================================
// Change requests
// ============================================================

func (h *Handler) ListChangeRequests(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(w.ChangeRequests())
}

// CreateChangeRequest добавляет пустую заявку на изменение.
func (h *Handler) CreateChangeRequest(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	cr, err := w.CreateChangeRequest(c.Context())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(cr)
}

// ChangeRequestFromRCA заполняет заявку из пункта анализа первопричин.
func (h *Handler) ChangeRequestFromRCA(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}
	cr, err := w.CreateChangeRequestFromRCA(c.Context(), index)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(cr)
}

// SuggestChangeRequest просит модель составить заявку по последнему анализу.
func (h *Handler) SuggestChangeRequest(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	cr, err := w.SuggestChangeRequest(c.Context())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(cr)
}

func (h *Handler) UpdateChangeRequest(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	var patch service.ChangeRequestPatch
	if err := decode(c, &patch); err != nil {
		return err
	}
	cr, err := w.UpdateChangeRequest(c.Context(), c.Params("crid"), patch)
	if err != nil {
		return err
	}
	return c.JSON(cr)
}

func (h *Handler) DeleteChangeRequest(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	if err := w.DeleteChangeRequest(c.Context(), c.Params("crid")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
