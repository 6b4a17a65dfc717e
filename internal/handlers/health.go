package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"cargoquote-backend/internal/storage"
	"cargoquote-backend/internal/tariff"
)

// HealthHandler reports service liveness and the loaded tariff version.
type HealthHandler struct {
	cfg           *tariff.Config
	store         storage.Store
	llmConfigured bool
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(cfg *tariff.Config, store storage.Store, llmConfigured bool) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store, llmConfigured: llmConfigured}
}

// HandleHealth sweeps expired sessions opportunistically and reports status.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	h.store.Sweep(time.Now())
	return c.JSON(fiber.Map{
		"status":         "ok",
		"tariff_version": h.cfg.Version,
		"llm_configured": h.llmConfigured,
		"sessions":       h.store.Count(),
	})
}
