package handlers

import (
	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/taxonomy"
)

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	taxonomy *taxonomy.Store
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(store *taxonomy.Store) *ProbeHandler {
	return &ProbeHandler{taxonomy: store}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Returns 200 OK once the label taxonomy load has finished. A failed load
// still serves traffic with an empty filter panel.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	_, status, _ := h.taxonomy.Snapshot()
	if status == taxonomy.StatusLoading {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"error":  "label taxonomy loading",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"taxonomy": string(status),
	})
}
