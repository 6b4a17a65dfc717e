package tariff

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Decision is the rating outcome.
type Decision string

const (
	DecisionAutoOK  Decision = "AUTO_OK"
	DecisionRefer   Decision = "REFER"
	DecisionDecline Decision = "DECLINE"
)

// Reason codes attached to non-AUTO_OK decisions.
const (
	ReasonCargoNotEligible       = "CARGO_NOT_ELIGIBLE"
	ReasonConditionNotSupported  = "CONDITION_NOT_SUPPORTED"
	ReasonLimitExceeded          = "LIMIT_EXCEEDED"
	ReasonFranchiseNotSupported  = "FRANCHISE_NOT_SUPPORTED"
	ReasonRouteZoneNotSupported  = "ROUTE_ZONE_NOT_SUPPORTED"
	ReasonReeferFlagNotSupported = "REEFER_FLAG_NOT_SUPPORTED"
)

// ErrUnsupportedInputs is returned by Quote when a rate or coefficient is
// missing for the given facts. Reaching it means the caller skipped Assess.
var ErrUnsupportedInputs = errors.New("tariff: unsupported inputs, assess first")

// Facts are the validated inputs to the rating engine.
type Facts struct {
	CargoClassID  string
	SumInsuredRub decimal.Decimal
	Condition     string
	FranchiseRub  int64
	IsReefer      bool
	RouteZone     string
}

// Assess runs the eligibility checks in fixed priority order and
// short-circuits on the first failure: a single decision, a single reason.
// It never calculates anything and never falls back to a default rate.
func Assess(cfg *Config, f Facts) (Decision, []string) {
	byCondition, ok := cfg.BaseRates[f.CargoClassID]
	if !ok {
		return DecisionDecline, []string{ReasonCargoNotEligible}
	}

	condition := strings.ToUpper(f.Condition)
	if _, ok := byCondition[condition]; !ok {
		return DecisionRefer, []string{ReasonConditionNotSupported}
	}

	if f.SumInsuredRub.GreaterThan(cfg.AutoLimitRub) {
		return DecisionRefer, []string{ReasonLimitExceeded}
	}

	if _, ok := cfg.KFranchise[strconv.FormatInt(f.FranchiseRub, 10)]; !ok {
		return DecisionRefer, []string{ReasonFranchiseNotSupported}
	}

	if _, ok := cfg.KRoute[f.RouteZone]; !ok {
		return DecisionRefer, []string{ReasonRouteZoneNotSupported}
	}

	if _, ok := cfg.KReefer[strconv.FormatBool(f.IsReefer)]; !ok {
		return DecisionRefer, []string{ReasonReeferFlagNotSupported}
	}

	return DecisionAutoOK, nil
}

// Quote computes the rounded premium for facts that already passed Assess
// with AUTO_OK. The second result reports whether the minimum premium floor
// was applied.
func Quote(cfg *Config, f Facts) (decimal.Decimal, bool, error) {
	byCondition, ok := cfg.BaseRates[f.CargoClassID]
	if !ok {
		return decimal.Zero, false, ErrUnsupportedInputs
	}
	baseRate, ok := byCondition[strings.ToUpper(f.Condition)]
	if !ok {
		return decimal.Zero, false, ErrUnsupportedInputs
	}
	kFranchise, ok := cfg.KFranchise[strconv.FormatInt(f.FranchiseRub, 10)]
	if !ok {
		return decimal.Zero, false, ErrUnsupportedInputs
	}
	kReefer, ok := cfg.KReefer[strconv.FormatBool(f.IsReefer)]
	if !ok {
		return decimal.Zero, false, ErrUnsupportedInputs
	}
	kRoute, ok := cfg.KRoute[f.RouteZone]
	if !ok {
		return decimal.Zero, false, ErrUnsupportedInputs
	}

	raw := f.SumInsuredRub.Mul(baseRate).Mul(kFranchise).Mul(kReefer).Mul(kRoute)
	premium := roundToStep(raw, cfg.StepRub, cfg.RoundMode)

	if premium.LessThan(cfg.MinPremiumRub) {
		return cfg.MinPremiumRub, true, nil
	}
	return premium, false, nil
}

// roundToStep maps a raw amount onto the step grid: half-up to the nearest
// step, or up to the next step for CEIL. Exact integer quotient/remainder
// arithmetic, no division precision involved.
func roundToStep(amount decimal.Decimal, stepRub int64, mode string) decimal.Decimal {
	step := decimal.NewFromInt(stepRub)

	if mode == RoundCeil {
		q, r := amount.QuoRem(step, 0)
		if r.IsPositive() {
			q = q.Add(decimal.NewFromInt(1))
		}
		return q.Mul(step)
	}

	return amount.DivRound(step, 0).Mul(step)
}
