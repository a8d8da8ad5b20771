package handlers

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/schematic"
	"process-monitor/internal/monitor/service"
)

// ============================================================
// Status & Trends
// ============================================================

// Status возвращает отчёт о соответствии замера базе (по умолчанию активного).
func (h *Handler) Status(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	_, index := w.Active()
	if q := c.Query("reading"); q != "" {
		if index, err = strconv.Atoi(q); err != nil {
			return invalid("reading must be an integer")
		}
	}
	rep, err := w.StatusReport(index)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}

// Trends строит ряды значений параметров зоны по всем замерам.
func (h *Handler) Trends(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	q := service.TrendQuery{ZoneID: c.Query("zone")}
	for _, p := range strings.Split(c.Query("param"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			q.Params = append(q.Params, p)
		}
	}
	if q.From, err = queryDate(c, "from"); err != nil {
		return err
	}
	if q.To, err = queryDate(c, "to"); err != nil {
		return err
	}
	series, err := w.Trend(q)
	if err != nil {
		return err
	}
	return c.JSON(series)
}

func queryDate(c fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, v)
	if err != nil {
		return time.Time{}, invalid(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", key))
	}
	return t, nil
}

func (h *Handler) ProcessTimes(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(w.ProcessTimes())
}

// Classify относит пару значений к уровню соответствия. Параметр path
// помечает поля, которые в замере только для чтения.
func (h *Handler) Classify(c fiber.Ctx) error {
	if _, err := h.workspace(c); err != nil {
		return err
	}
	mode := deviation.Mode(c.Query("mode", string(deviation.ModeCurrent)))
	if !mode.Valid() {
		return invalid("mode must be baseline or current")
	}
	return c.JSON(deviation.Classify(deviation.Input{
		Current:  c.Query("current"),
		Baseline: c.Query("baseline"),
		Mode:     mode,
		ReadOnly: models.IsReadOnlyInCurrent(c.Query("path")),
	}))
}

// ============================================================
// Export / Import
// ============================================================

func (h *Handler) Export(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	data, err := w.Export()
	if err != nil {
		return err
	}
	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, w.ID()))
	return c.Send(data)
}

// Import заменяет состояние файлом сохранения из тела запроса или поля формы file.
func (h *Handler) Import(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}

	data := c.Body()
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, err := fh.Open()
		if err != nil {
			return invalid("cannot open uploaded file")
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return invalid("cannot read uploaded file")
		}
	}
	if len(data) == 0 {
		return invalid("save file required")
	}

	rec, err := w.Import(c.Context(), data)
	if err != nil {
		return err
	}
	h.logger.Info("Workspace imported", zap.String("id", w.ID()), zap.Int("reconciled", len(rec.Changes)))

	changes := make([]string, 0, len(rec.Changes))
	for _, ch := range rec.Changes {
		changes = append(changes, ch.String())
	}
	return c.JSON(fiber.Map{
		"workspace":      workspaceView(w),
		"reconciliation": changes,
	})
}

// ============================================================
// Schematic & collection sheet
// ============================================================

// view выбирает снимок по параметру view: baseline или current (по умолчанию).
func view(c fiber.Ctx, w *service.Workspace) (models.ProcessData, string, error) {
	switch v := c.Query("view", string(deviation.ModeCurrent)); deviation.Mode(v) {
	case deviation.ModeBaseline:
		return w.Snapshot().Baseline, w.Name() + " (Baseline)", nil
	case deviation.ModeCurrent:
		reading, i := w.Active()
		return reading, fmt.Sprintf("%s (Reading %d)", w.Name(), i+1), nil
	default:
		return models.ProcessData{}, "", invalid("view must be baseline or current")
	}
}

func (h *Handler) renderSchematic(c fiber.Ctx, w *service.Workspace) (string, error) {
	data, title, err := view(c, w)
	if err != nil {
		return "", err
	}
	svg, err := h.renderer.Render(data, title)
	if err != nil {
		return "", invalid(err.Error())
	}
	return svg, nil
}

// Schematic рисует схему линии в SVG
func (h *Handler) Schematic(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	svg, err := h.renderSchematic(c, w)
	if err != nil {
		return err
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// CollectionSheet отдаёт HTML-лист для ручного сбора данных по базе.
func (h *Handler) CollectionSheet(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return err
	}
	page, err := schematic.CollectionSheet(w.Snapshot().Baseline)
	if err != nil {
		return invalid(err.Error())
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(page)
}
