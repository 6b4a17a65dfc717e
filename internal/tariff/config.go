// Package tariff implements the rating engine: an immutable rate table
// loaded once at startup and two pure functions over it, Assess and Quote.
// All monetary math is exact decimal; binary floating-point would shift
// rounding outcomes across the configured step boundary.
package tariff

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Rounding modes for the final premium.
const (
	RoundHalfUp = "HALF_UP"
	RoundCeil   = "CEIL"
)

// Config is the loaded rate table. Immutable for the process lifetime.
type Config struct {
	Version       string
	AutoLimitRub  decimal.Decimal
	MinPremiumRub decimal.Decimal
	// BaseRates maps cargo class -> condition -> rate fraction.
	BaseRates  map[string]map[string]decimal.Decimal
	KFranchise map[string]decimal.Decimal
	KReefer    map[string]decimal.Decimal
	KRoute     map[string]decimal.Decimal
	RoundMode  string
	StepRub    int64
}

type rawConfig struct {
	Version       string                                 `json:"version"`
	AutoLimitRub  *decimal.Decimal                       `json:"auto_limit_rub"`
	MinPremiumRub *decimal.Decimal                       `json:"min_premium_rub"`
	BaseRates     map[string]map[string]*decimal.Decimal `json:"base_rates"`
	KFranchise    map[string]*decimal.Decimal            `json:"k_franchise"`
	KReefer       map[string]*decimal.Decimal            `json:"k_reefer"`
	KRoute        map[string]*decimal.Decimal            `json:"k_route"`
	Rounding      *struct {
		Mode    string `json:"mode"`
		StepRub int64  `json:"step_rub"`
	} `json:"rounding"`
}

// LoadConfig reads and validates the rate table document. Any missing
// required key, non-numeric value or non-positive rounding step is an
// error: the service must not accept traffic with an invalid table.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tariff config not readable at %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig builds a Config from a raw rate table document.
func ParseConfig(data []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("tariff config is not valid JSON: %w", err)
	}

	if raw.Version == "" {
		return nil, fmt.Errorf("tariff config: missing required key %q", "version")
	}
	if raw.AutoLimitRub == nil {
		return nil, fmt.Errorf("tariff config: missing required key %q", "auto_limit_rub")
	}
	if raw.MinPremiumRub == nil {
		return nil, fmt.Errorf("tariff config: missing required key %q", "min_premium_rub")
	}
	if len(raw.BaseRates) == 0 {
		return nil, fmt.Errorf("tariff config: missing required key %q", "base_rates")
	}
	if len(raw.KFranchise) == 0 {
		return nil, fmt.Errorf("tariff config: missing required key %q", "k_franchise")
	}
	if len(raw.KReefer) == 0 {
		return nil, fmt.Errorf("tariff config: missing required key %q", "k_reefer")
	}
	if len(raw.KRoute) == 0 {
		return nil, fmt.Errorf("tariff config: missing required key %q", "k_route")
	}

	cfg := &Config{
		Version:       raw.Version,
		AutoLimitRub:  *raw.AutoLimitRub,
		MinPremiumRub: *raw.MinPremiumRub,
		BaseRates:     make(map[string]map[string]decimal.Decimal, len(raw.BaseRates)),
		KFranchise:    make(map[string]decimal.Decimal, len(raw.KFranchise)),
		KReefer:       make(map[string]decimal.Decimal, len(raw.KReefer)),
		KRoute:        make(map[string]decimal.Decimal, len(raw.KRoute)),
		RoundMode:     RoundHalfUp,
		StepRub:       1,
	}

	for cargoID, byCond := range raw.BaseRates {
		if len(byCond) == 0 {
			return nil, fmt.Errorf("tariff config: base_rates[%s] has no conditions", cargoID)
		}
		cfg.BaseRates[cargoID] = make(map[string]decimal.Decimal, len(byCond))
		for cond, rate := range byCond {
			if rate == nil {
				return nil, fmt.Errorf("tariff config: base_rates[%s][%s] is not numeric", cargoID, cond)
			}
			cfg.BaseRates[cargoID][cond] = *rate
		}
	}
	for k, v := range raw.KFranchise {
		if v == nil {
			return nil, fmt.Errorf("tariff config: k_franchise[%s] is not numeric", k)
		}
		cfg.KFranchise[k] = *v
	}
	for k, v := range raw.KReefer {
		if v == nil {
			return nil, fmt.Errorf("tariff config: k_reefer[%s] is not numeric", k)
		}
		cfg.KReefer[k] = *v
	}
	for k, v := range raw.KRoute {
		if v == nil {
			return nil, fmt.Errorf("tariff config: k_route[%s] is not numeric", k)
		}
		cfg.KRoute[k] = *v
	}

	if raw.Rounding != nil {
		if raw.Rounding.Mode != RoundHalfUp && raw.Rounding.Mode != RoundCeil {
			return nil, fmt.Errorf("tariff config: rounding.mode must be HALF_UP or CEIL, got %q", raw.Rounding.Mode)
		}
		if raw.Rounding.StepRub <= 0 {
			return nil, fmt.Errorf("tariff config: rounding.step_rub must be > 0")
		}
		cfg.RoundMode = raw.Rounding.Mode
		cfg.StepRub = raw.Rounding.StepRub
	}

	return cfg, nil
}
