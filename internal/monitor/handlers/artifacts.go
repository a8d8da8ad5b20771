package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/schematic"
	"process-monitor/internal/monitor/service"
	"process-monitor/internal/monitor/storage"
)

// ============================================================
// Artifacts
// ============================================================

const artifactTimeLayout = "20060102-150405"

// artifact формирует содержимое снимка указанного вида.
func (h *Handler) artifact(c fiber.Ctx, w *service.Workspace, kind string) (string, []byte, error) {
	stamp := h.now().UTC().Format(artifactTimeLayout)
	switch kind {
	case "save":
		data, err := w.Export()
		return fmt.Sprintf("save-%s.json", stamp), data, err
	case "schematic":
		svg, err := h.renderSchematic(c, w)
		return fmt.Sprintf("schematic-%s-%s.svg", c.Query("view", "current"), stamp), []byte(svg), err
	case "sheet":
		page, err := schematic.CollectionSheet(w.Snapshot().Baseline)
		if err != nil {
			return "", nil, invalid(err.Error())
		}
		return fmt.Sprintf("sheet-%s.html", stamp), []byte(page), nil
	}
	return "", nil, invalid("artifact kind must be save, schematic or sheet")
}

// SaveArtifact сохраняет снимок (файл сохранения, схему или лист) в хранилище.
func (h *Handler) SaveArtifact(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	name, content, err := h.artifact(c, w, c.Params("kind"))
	if err != nil {
		return err
	}
	if err := h.artifacts.Put(c.Context(), w.ID(), name, content); err != nil {
		return artifactError(err, name)
	}
	h.logger.Info("Artifact stored", zap.String("workspace", w.ID()), zap.String("name", name), zap.Int("size", len(content)))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"name": name, "size": len(content)})
}

func (h *Handler) ListArtifacts(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	names, err := h.artifacts.List(c.Context(), w.ID())
	if err != nil {
		return artifactError(err, "")
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(names)
}

func (h *Handler) GetArtifact(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	name := c.Params("name")
	data, err := h.artifacts.Get(c.Context(), w.ID(), name)
	if err != nil {
		return artifactError(err, name)
	}
	c.Set("Content-Type", storage.ContentType(name))
	return c.Send(data)
}

func artifactError(err error, name string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFoundError("artifact", name)
	case errors.Is(err, storage.ErrInvalidName):
		return invalid(err.Error())
	}
	return apperrors.Wrap(apperrors.CodeStorageFailed, "Artifact storage failed", err)
}
