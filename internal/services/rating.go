package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cargoquote-backend/internal/models"
	"cargoquote-backend/internal/tariff"
)

// RatingOutcome is what the dialog needs from a rating call, regardless of
// whether the engine ran in-process or behind HTTP.
type RatingOutcome struct {
	Decision          tariff.Decision `json:"decision"`
	PremiumRub        *int64          `json:"premium_rub,omitempty"`
	MinPremiumApplied *bool           `json:"min_premium_applied,omitempty"`
	TariffVersion     string          `json:"tariff_version"`
	Reasons           []string        `json:"reasons"`
}

// RatingClient produces a priced decision for validated facts. A returned
// error is a hard failure for the turn: the dialog does not retry it.
type RatingClient interface {
	Rate(ctx context.Context, facts tariff.Facts) (*RatingOutcome, error)
}

// EngineRating runs the rating engine in-process.
type EngineRating struct {
	cfg *tariff.Config
}

// NewEngineRating wraps a loaded rate table.
func NewEngineRating(cfg *tariff.Config) *EngineRating {
	return &EngineRating{cfg: cfg}
}

func (e *EngineRating) Rate(_ context.Context, facts tariff.Facts) (*RatingOutcome, error) {
	decision, reasons := tariff.Assess(e.cfg, facts)
	outcome := &RatingOutcome{
		Decision:      decision,
		TariffVersion: e.cfg.Version,
		Reasons:       reasons,
	}
	if outcome.Reasons == nil {
		outcome.Reasons = []string{}
	}
	if decision != tariff.DecisionAutoOK {
		return outcome, nil
	}

	premium, minApplied, err := tariff.Quote(e.cfg, facts)
	if err != nil {
		return nil, err
	}
	premiumRub := premium.IntPart()
	outcome.PremiumRub = &premiumRub
	outcome.MinPremiumApplied = &minApplied
	return outcome, nil
}

// HTTPRating calls a remotely deployed rating service.
type HTTPRating struct {
	url    string
	bearer string
	client *http.Client
}

// NewHTTPRating creates a client for the remote quote endpoint.
func NewHTTPRating(url, bearer string) *HTTPRating {
	return &HTTPRating{
		url:    url,
		bearer: bearer,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTPRating) Rate(ctx context.Context, facts tariff.Facts) (*RatingOutcome, error) {
	isReefer := facts.IsReefer
	body, err := json.Marshal(models.QuoteRequest{
		CargoClassID:  facts.CargoClassID,
		SumInsuredRub: facts.SumInsuredRub,
		Condition:     facts.Condition,
		FranchiseRub:  facts.FranchiseRub,
		IsReefer:      &isReefer,
		RouteZone:     facts.RouteZone,
	})
	if err != nil {
		return nil, fmt.Errorf("rating: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rating: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+h.bearer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rating: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("rating: status %d: %s", resp.StatusCode, snippet)
	}

	var qr models.QuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("rating: decode response: %w", err)
	}

	outcome := &RatingOutcome{
		Decision:          tariff.Decision(qr.Decision),
		PremiumRub:        qr.PremiumRub,
		MinPremiumApplied: qr.MinPremiumApplied,
		TariffVersion:     qr.TariffVersion,
		Reasons:           qr.Reasons,
	}
	if outcome.Reasons == nil {
		outcome.Reasons = []string{}
	}
	return outcome, nil
}
