package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cargoquote-backend/internal/models"
	"cargoquote-backend/internal/tariff"
)

// QuoteHandler serves the rating capability over HTTP.
type QuoteHandler struct {
	cfg      *tariff.Config
	validate *validator.Validate
}

// NewQuoteHandler creates the quote handler over a loaded rate table.
func NewQuoteHandler(cfg *tariff.Config) *QuoteHandler {
	return &QuoteHandler{
		cfg:      cfg,
		validate: validator.New(),
	}
}

// HandleQuote assesses the submitted facts and, for AUTO_OK, prices them.
func (h *QuoteHandler) HandleQuote(c *fiber.Ctx) error {
	var req models.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quote payload",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !req.SumInsuredRub.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sum_insured_rub must be positive",
		})
	}

	facts := tariff.Facts{
		CargoClassID:  req.CargoClassID,
		SumInsuredRub: req.SumInsuredRub,
		Condition:     req.Condition,
		FranchiseRub:  req.FranchiseRub,
		IsReefer:      *req.IsReefer,
		RouteZone:     req.RouteZone,
	}

	resp := models.QuoteResponse{
		TariffVersion: h.cfg.Version,
		PublicBreakdown: models.PublicBreakdown{
			CargoClassID:  req.CargoClassID,
			Condition:     req.Condition,
			SumInsuredRub: req.SumInsuredRub,
			FranchiseRub:  req.FranchiseRub,
			IsReefer:      *req.IsReefer,
			RouteZone:     req.RouteZone,
		},
		Reasons: []string{},
	}

	decision, reasons := tariff.Assess(h.cfg, facts)
	resp.Decision = string(decision)
	if reasons != nil {
		resp.Reasons = reasons
	}

	if decision != tariff.DecisionAutoOK {
		return c.JSON(resp)
	}

	premium, minApplied, err := tariff.Quote(h.cfg, facts)
	if err != nil {
		// Unreachable after a passing Assess; fail closed rather than guess.
		if errors.Is(err, tariff.ErrUnsupportedInputs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported tariff inputs",
			})
		}
		return err
	}

	premiumRub := premium.IntPart()
	resp.PremiumRub = &premiumRub
	resp.MinPremiumApplied = &minApplied
	return c.JSON(resp)
}
