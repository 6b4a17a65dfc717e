package models

import "time"

// Stage is the dialog state machine position. The set is closed: the
// state machine switches exhaustively over these values and treats
// anything else as corrupted state.
type Stage string

const (
	StageWelcome        Stage = "welcome"
	StageIntentSelect   Stage = "intent_select"
	StageConsult        Stage = "consult"
	StageQuoteSum       Stage = "quote_sum"
	StageQuoteCargo     Stage = "quote_cargo"
	StageCargoConfirm   Stage = "cargo_confirm"
	StageCargoRetry     Stage = "cargo_retry"
	StageCargoChoose    Stage = "cargo_choose"
	StageQuoteCondition Stage = "quote_condition"
	StageQuoteFranchise Stage = "quote_franchise"
	StageQuoteReefer    Stage = "quote_reefer"
	StageQuoteRoute     Stage = "quote_route"
	StageQuoted         Stage = "quoted"
	StageRefer          Stage = "refer"
	StageNextPhase      Stage = "next_phase"
	StageHandoff        Stage = "handoff"
)

// Intent is what the user wants from the conversation.
type Intent string

const (
	IntentUnset   Intent = ""
	IntentConsult Intent = "consult"
	IntentBuy     Intent = "buy"
)

// CargoProposal is a classifier suggestion awaiting user confirmation.
// It exists only between a confident classification and the yes/no answer.
type CargoProposal struct {
	ProposedID   string `json:"proposed_id"`
	ProposedName string `json:"proposed_name"`
}

// QuoteData holds the facts collected so far. Pointer fields distinguish
// "not collected yet" from a zero value; string fields use "" as unset.
type QuoteData struct {
	SumInsuredRub     *int64 `json:"sum_insured_rub"`
	CargoDesc         string `json:"cargo_desc,omitempty"`
	CargoClassID      string `json:"cargo_class_id,omitempty"`
	Condition         string `json:"condition,omitempty"`
	FranchiseRub      *int64 `json:"franchise_rub"`
	IsReefer          *bool  `json:"is_reefer"`
	RouteZone         string `json:"route_zone,omitempty"`
	PremiumRub        *int64 `json:"premium_rub,omitempty"`
	MinPremiumApplied *bool  `json:"min_premium_applied,omitempty"`
}

// MissingFields lists the rating inputs that are still unset, in the order
// they are collected.
func (d *QuoteData) MissingFields() []string {
	var missing []string
	if d.SumInsuredRub == nil {
		missing = append(missing, "sum_insured_rub")
	}
	if d.CargoClassID == "" {
		missing = append(missing, "cargo_class_id")
	}
	if d.Condition == "" {
		missing = append(missing, "condition")
	}
	if d.FranchiseRub == nil {
		missing = append(missing, "franchise_rub")
	}
	if d.IsReefer == nil {
		missing = append(missing, "is_reefer")
	}
	if d.RouteZone == "" {
		missing = append(missing, "route_zone")
	}
	return missing
}

// Session is one conversation's accumulated state. It is owned by the
// session store and mutated only by the dialog state machine.
type Session struct {
	ID        string         `json:"session_id"`
	Stage     Stage          `json:"stage"`
	Intent    Intent         `json:"intent"`
	Data      QuoteData      `json:"data"`
	Pending   *CargoProposal `json:"pending,omitempty"`
	Retries   int            `json:"retries"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// NewSession creates a fresh session at the welcome stage.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Stage:     StageWelcome,
		Intent:    IntentUnset,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Touch extends the session lifetime after a turn.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
}
