package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Routes
// ============================================================

// Register подключает health-пробы и API рабочих пространств к router.
func Register(router fiber.Router, h *Handler, health *HealthHandler) {
	router.Get("/health/live", health.LivenessProbe)
	router.Get("/health/ready", health.ReadinessProbe)
	router.Get("/health/startup", health.StartupProbe)

	router.Get("/docs/openapi.yaml", OpenAPISpec)
	router.Get("/docs", SwaggerUI("docs/openapi.yaml"))

	router.Post("/workspaces", h.CreateWorkspace)
	router.Get("/workspaces", h.ListWorkspaces)

	router.Get("/workspaces/:id", h.GetWorkspace)
	router.Patch("/workspaces/:id", h.RenameWorkspace)
	router.Delete("/workspaces/:id", h.DeleteWorkspace)

	ws := router.Group("/workspaces/:id")

	ws.Post("/edits", h.ApplyEdit)
	ws.Put("/problem-statement", h.SetProblemStatement)

	ws.Post("/readings", h.AddReading)
	ws.Delete("/readings/active", h.DeleteReading)
	ws.Put("/readings/active", h.SelectReading)

	ws.Get("/status", h.Status)
	ws.Get("/trends", h.Trends)
	ws.Get("/process-times", h.ProcessTimes)
	ws.Get("/classify", h.Classify)

	ws.Get("/export", h.Export)
	ws.Post("/import", h.Import)

	ws.Get("/schematic", h.Schematic)
	ws.Get("/collection-sheet", h.CollectionSheet)
	ws.Post("/artifacts/:kind", h.SaveArtifact)
	ws.Get("/artifacts", h.ListArtifacts)
	ws.Get("/artifacts/:name", h.GetArtifact)

	ws.Post("/analysis", h.Analyze)
	ws.Get("/analysis", h.GetAnalysis)
	ws.Post("/chat", h.Chat)
	ws.Get("/chat", h.Transcript)

	ws.Get("/change-requests", h.ListChangeRequests)
	ws.Post("/change-requests", h.CreateChangeRequest)
	ws.Post("/change-requests/from-rca/:index", h.ChangeRequestFromRCA)
	ws.Post("/change-requests/suggest", h.SuggestChangeRequest)
	ws.Patch("/change-requests/:crid", h.UpdateChangeRequest)
	ws.Delete("/change-requests/:crid", h.DeleteChangeRequest)
}
