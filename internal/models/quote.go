package models

import "github.com/shopspring/decimal"

// QuoteRequest is the rating capability input.
type QuoteRequest struct {
	CargoClassID  string          `json:"cargo_class_id" validate:"required,min=3,max=64"`
	SumInsuredRub decimal.Decimal `json:"sum_insured_rub"`
	Condition     string          `json:"condition" validate:"required,oneof=NEW USED"`
	FranchiseRub  int64           `json:"franchise_rub" validate:"gte=0"`
	IsReefer      *bool           `json:"is_reefer" validate:"required"`
	RouteZone     string          `json:"route_zone" validate:"required,min=1,max=64"`
}

// PublicBreakdown echoes the rated facts back to the caller. Rates and
// coefficients themselves never leave the engine.
type PublicBreakdown struct {
	CargoClassID  string          `json:"cargo_class_id"`
	Condition     string          `json:"condition"`
	SumInsuredRub decimal.Decimal `json:"sum_insured_rub"`
	FranchiseRub  int64           `json:"franchise_rub"`
	IsReefer      bool            `json:"is_reefer"`
	RouteZone     string          `json:"route_zone"`
}

// QuoteResponse is the rating capability output.
type QuoteResponse struct {
	Decision          string          `json:"decision"`
	PremiumRub        *int64          `json:"premium_rub"`
	MinPremiumApplied *bool           `json:"min_premium_applied"`
	TariffVersion     string          `json:"tariff_version"`
	PublicBreakdown   PublicBreakdown `json:"public_breakdown"`
	Reasons           []string        `json:"reasons"`
}
