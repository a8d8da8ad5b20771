package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/mutation"
	"process-monitor/internal/monitor/service"
)

// ============================================================
// Workspaces
// ============================================================

type workspaceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	service.State
}

type workspaceSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ActiveIndex int       `json:"activeIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func workspaceView(w *service.Workspace) workspaceResponse {
	return workspaceResponse{ID: w.ID(), Name: w.Name(), State: w.Snapshot()}
}

// CreateWorkspace создаёт рабочее пространство с пустой базой и одним замером.
func (h *Handler) CreateWorkspace(c fiber.Ctx) error {
	var req nameRequest
	if len(c.Body()) > 0 {
		if err := decode(c, &req); err != nil {
			return err
		}
	}
	w, err := h.manager.Create(c.Context(), req.Name)
	if err != nil {
		return err
	}
	h.logger.Info("Workspace created", zap.String("id", w.ID()), zap.String("name", w.Name()))
	return c.Status(http.StatusCreated).JSON(workspaceView(w))
}

func (h *Handler) ListWorkspaces(c fiber.Ctx) error {
	list, err := h.manager.List(c.Context())
	if err != nil {
		return err
	}
	out := make([]workspaceSummary, 0, len(list))
	for _, w := range list {
		out = append(out, workspaceSummary{
			ID:          w.ID,
			Name:        w.Name,
			ActiveIndex: w.ActiveIndex,
			CreatedAt:   w.CreatedAt,
			UpdatedAt:   w.UpdatedAt,
		})
	}
	return c.JSON(out)
}

func (h *Handler) GetWorkspace(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(workspaceView(w))
}

func (h *Handler) RenameWorkspace(c fiber.Ctx) error {
	var req nameRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if err := h.manager.Rename(c.Context(), c.Params("id"), req.Name); err != nil {
		return err
	}
	return h.GetWorkspace(c)
}

func (h *Handler) DeleteWorkspace(c fiber.Ctx) error {
	if err := h.manager.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	h.logger.Info("Workspace deleted", zap.String("id", c.Params("id")))
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Edits
// ============================================================

type derivedField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type editResponse struct {
	Scope       string             `json:"scope"`
	Touched     int                `json:"touched"`
	CreatedID   string             `json:"createdId,omitempty"`
	Derived     *derivedField      `json:"derived,omitempty"`
	ActiveIndex int                `json:"activeIndex"`
	Baseline    models.ProcessData `json:"baseline"`
	Reading     models.ProcessData `json:"reading"`
}

// ApplyEdit применяет одну правку к базе или активному замеру.
func (h *Handler) ApplyEdit(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	var edit mutation.Edit
	if err := decode(c, &edit); err != nil {
		return err
	}
	res, err := w.ApplyEdit(c.Context(), edit)
	if err != nil {
		return err
	}

	out := editResponse{
		Scope:       res.Scope.String(),
		Touched:     res.Touched,
		CreatedID:   res.CreatedID,
		ActiveIndex: res.State.Active,
		Baseline:    res.State.Baseline,
		Reading:     res.State.Historical[res.State.Active],
	}
	if res.Derived != nil {
		out.Derived = &derivedField{Field: res.Derived.Field, Value: res.Derived.Value}
	}
	return c.JSON(out)
}

type problemStatementRequest struct {
	ProblemStatement string `json:"problemStatement"`
}

func (h *Handler) SetProblemStatement(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	var req problemStatementRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if err := w.SetProblemStatement(c.Context(), req.ProblemStatement); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"problemStatement": req.ProblemStatement})
}

// ============================================================
// Readings
// ============================================================

type readingRequest struct {
	Index *int `json:"index"`
}

func readingResponse(w *service.Workspace) fiber.Map {
	snap := w.Snapshot()
	return fiber.Map{
		"activeIndex": snap.ActiveIndex,
		"readings":    len(snap.Historical),
		"reading":     snap.Historical[snap.ActiveIndex],
	}
}

// AddReading добавляет замер и делает его активным.
func (h *Handler) AddReading(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	if _, err := w.AddReading(c.Context()); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(readingResponse(w))
}

func (h *Handler) DeleteReading(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	if _, err := w.DeleteReading(c.Context()); err != nil {
		return err
	}
	return c.JSON(readingResponse(w))
}

func (h *Handler) SelectReading(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	var req readingRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Index == nil {
		return invalid("index is required")
	}
	if err := w.SelectReading(c.Context(), *req.Index); err != nil {
		return err
	}
	return c.JSON(readingResponse(w))
}
