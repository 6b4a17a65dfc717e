package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoquote-backend/internal/classifier"
	"cargoquote-backend/internal/models"
	"cargoquote-backend/internal/storage"
	"cargoquote-backend/internal/tariff"
)

const testTariffDoc = `{
  "version": "test-1",
  "auto_limit_rub": "20000000",
  "min_premium_rub": "1500",
  "base_rates": {
    "CARGO003": { "NEW": "0.0015", "USED": "0.0026" },
    "CARGO004": { "NEW": "0.0019" }
  },
  "k_franchise": { "20000": "1.0", "50000": "0.9" },
  "k_reefer": { "false": "1.0", "true": "1.15" },
  "k_route": { "РФ": "1.0", "СНГ-РФ": "1.2", "ВЕСЬ МИР-РФ": "1.4" },
  "rounding": { "mode": "HALF_UP", "step_rub": 10 }
}`

// fakeClassifier replays scripted results; the last one repeats once the
// script runs out.
type fakeClassifier struct {
	results []classifier.Result
	calls   int
}

func (f *fakeClassifier) Classify(ctx context.Context, desc string) (classifier.Result, []classifier.Attempt) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r, []classifier.Attempt{{Number: 1, Status: r.Status, ClassID: r.ClassID, Reason: r.Reason}}
}

func okClassifier(classID string) *fakeClassifier {
	name, _ := models.CargoClassName(classID)
	return &fakeClassifier{results: []classifier.Result{
		{Status: classifier.StatusOK, ClassID: classID, Reason: name},
	}}
}

// fakeRating fails until cleared, for exercising the hard-failure path.
type fakeRating struct {
	err     error
	outcome *RatingOutcome
}

func (f *fakeRating) Rate(ctx context.Context, facts tariff.Facts) (*RatingOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func newTestDialog(t *testing.T, cls CargoClassifier, rating RatingClient) (*DialogService, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore(time.Hour)
	if rating == nil {
		cfg, err := tariff.ParseConfig([]byte(testTariffDoc))
		require.NoError(t, err)
		rating = NewEngineRating(cfg)
	}
	return NewDialogService(store, cls, rating, time.Hour, 2), store
}

func turn(t *testing.T, d *DialogService, sessionID, message string) *TurnResult {
	t.Helper()
	res, err := d.HandleTurn(context.Background(), sessionID, message, false)
	require.NoError(t, err)
	return res
}

func TestDialogHappyPath(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	steps := []struct {
		message string
		stage   models.Stage
	}{
		{"Хочу оформить полис", models.StageQuoteSum},
		{"5 000 000", models.StageQuoteCargo},
		{"промышленные станки", models.StageCargoConfirm},
		{"да", models.StageQuoteCondition},
		{"новый", models.StageQuoteFranchise},
		{"20000", models.StageQuoteReefer},
		{"нет", models.StageQuoteRoute},
		{"РФ", models.StageQuoted},
	}

	var last *TurnResult
	for _, step := range steps {
		last = turn(t, d, sid, step.message)
		assert.Equal(t, step.stage, last.Stage, "after %q", step.message)
	}

	// 5 000 000 * 0.0015 = 7500
	require.NotNil(t, last.Data.PremiumRub)
	assert.Equal(t, int64(7500), *last.Data.PremiumRub)
	require.NotNil(t, last.Data.MinPremiumApplied)
	assert.False(t, *last.Data.MinPremiumApplied)
	assert.Equal(t, fmt.Sprintf(replyQuoted, 7500), last.Reply)
	assert.Equal(t, models.IntentBuy, last.Intent)
	assert.Equal(t, "CARGO003", last.Data.CargoClassID)
}

func TestDialogFirstTurnGreets(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)

	res := turn(t, d, "s1", "Здравствуйте")
	assert.Equal(t, models.StageIntentSelect, res.Stage)
	assert.Equal(t, replyGreeting+"\n\n"+replyIntentRetry, res.Reply)

	// The intent answer is processed in the same turn as the greeting.
	res = turn(t, d, "s2", "хочу оформить полис")
	assert.Equal(t, models.StageQuoteSum, res.Stage)
	assert.Equal(t, replyGreeting+"\n\n"+promptSum, res.Reply)
}

func TestDialogLimitExceededRefers(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "25 млн")
	turn(t, d, sid, "станки")
	turn(t, d, sid, "да")
	turn(t, d, sid, "новый")
	turn(t, d, sid, "20000")
	turn(t, d, sid, "нет")

	res, err := d.HandleTurn(context.Background(), sid, "РФ", true)
	require.NoError(t, err)
	assert.Equal(t, models.StageRefer, res.Stage)
	assert.Nil(t, res.Data.PremiumRub)
	assert.Contains(t, res.Reply, tariff.ReasonLimitExceeded)
	require.NotNil(t, res.Debug)
	require.NotNil(t, res.Debug.Rating)
	assert.Equal(t, string(tariff.DecisionRefer), res.Debug.Rating.Decision)
	assert.Equal(t, []string{tariff.ReasonLimitExceeded}, res.Debug.Rating.Reasons)

	// Handoff to a manager.
	res2 := turn(t, d, sid, "да")
	assert.Equal(t, models.StageHandoff, res2.Stage)
	assert.Equal(t, replyHandoff, res2.Reply)
}

func TestDialogIneligibleCargoDeclines(t *testing.T) {
	// CARGO005 has no rate in the test table.
	cls := &fakeClassifier{results: []classifier.Result{
		{Status: classifier.StatusUncertain, Reason: "не уверен"},
	}}
	d, _ := newTestDialog(t, cls, nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")
	res := turn(t, d, sid, "всякая всячина")
	assert.Equal(t, models.StageCargoChoose, res.Stage)

	turn(t, d, sid, "5")
	turn(t, d, sid, "новый")
	turn(t, d, sid, "20000")
	turn(t, d, sid, "нет")

	res = turn(t, d, sid, "РФ")
	assert.Equal(t, models.StageRefer, res.Stage)
	assert.Contains(t, res.Reply, tariff.ReasonCargoNotEligible)
}

func TestDialogUncertainFallsBackToMenu(t *testing.T) {
	cls := &fakeClassifier{results: []classifier.Result{
		{Status: classifier.StatusUncertain, Reason: "мало деталей"},
	}}
	d, _ := newTestDialog(t, cls, nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")

	res := turn(t, d, sid, "разное")
	assert.Equal(t, models.StageCargoChoose, res.Stage)
	assert.Contains(t, res.Reply, replyChooseManually)
	assert.Contains(t, res.Reply, "1.")

	// An unrecognized choice re-renders the menu.
	res = turn(t, d, sid, "что-то своё")
	assert.Equal(t, models.StageCargoChoose, res.Stage)
	assert.Contains(t, res.Reply, errMenu)

	res = turn(t, d, sid, "3")
	assert.Equal(t, models.StageQuoteCondition, res.Stage)
	assert.Equal(t, "CARGO003", res.Data.CargoClassID)
}

func TestDialogClassifierDownRetryBudget(t *testing.T) {
	cls := &fakeClassifier{results: []classifier.Result{
		{Status: classifier.StatusError, Reason: "503"},
	}}
	d, store := newTestDialog(t, cls, nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")

	res := turn(t, d, sid, "станки")
	assert.Equal(t, models.StageCargoRetry, res.Stage)
	assert.Equal(t, replyClassifierDown, res.Reply)

	// Two user-triggered retries stay within budget.
	res = turn(t, d, sid, "попробуй ещё")
	assert.Equal(t, models.StageCargoRetry, res.Stage)
	res = turn(t, d, sid, "ещё раз")
	assert.Equal(t, models.StageCargoRetry, res.Stage)

	// The next failure exhausts the budget and degrades to manual selection.
	res = turn(t, d, sid, "ну давай")
	assert.Equal(t, models.StageCargoChoose, res.Stage)
	assert.Contains(t, res.Reply, replyChooseManually)

	session, err := store.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Retries)
}

func TestDialogRetryCounterResetsOnFreshDescription(t *testing.T) {
	cls := &fakeClassifier{results: []classifier.Result{
		{Status: classifier.StatusError, Reason: "503"},
		{Status: classifier.StatusOK, ClassID: "CARGO003", Reason: "станки"},
		{Status: classifier.StatusError, Reason: "503"},
	}}
	d, store := newTestDialog(t, cls, nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")

	res := turn(t, d, sid, "станки")
	assert.Equal(t, models.StageCargoRetry, res.Stage)

	res = turn(t, d, sid, "давай")
	assert.Equal(t, models.StageCargoConfirm, res.Stage)

	// Rejecting the proposal clears the collected cargo facts.
	res = turn(t, d, sid, "нет")
	assert.Equal(t, models.StageQuoteCargo, res.Stage)
	assert.Empty(t, res.Data.CargoClassID)
	assert.Empty(t, res.Data.CargoDesc)

	// A fresh description starts with a zeroed retry counter.
	res = turn(t, d, sid, "другой груз")
	assert.Equal(t, models.StageCargoRetry, res.Stage)

	session, err := store.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Retries)
}

func TestDialogRatingFailureKeepsStage(t *testing.T) {
	rating := &fakeRating{err: fmt.Errorf("rating: status 502")}
	d, _ := newTestDialog(t, okClassifier("CARGO003"), rating)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")
	turn(t, d, sid, "станки")
	turn(t, d, sid, "да")
	turn(t, d, sid, "новый")
	turn(t, d, sid, "20000")
	turn(t, d, sid, "нет")

	res := turn(t, d, sid, "РФ")
	assert.Equal(t, models.StageQuoteRoute, res.Stage, "a failed rating call must not advance the stage")
	assert.Equal(t, replyRatingFailed, res.Reply)
	assert.Nil(t, res.Data.PremiumRub)

	// Once rating recovers, resubmitting the zone completes the quote.
	premium := int64(7500)
	minApplied := false
	rating.err = nil
	rating.outcome = &RatingOutcome{
		Decision:          tariff.DecisionAutoOK,
		PremiumRub:        &premium,
		MinPremiumApplied: &minApplied,
		TariffVersion:     "test-1",
		Reasons:           []string{},
	}

	res = turn(t, d, sid, "РФ")
	assert.Equal(t, models.StageQuoted, res.Stage)
	require.NotNil(t, res.Data.PremiumRub)
	assert.Equal(t, premium, *res.Data.PremiumRub)
}

func TestDialogRepromptsOnInvalidInput(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")

	res := turn(t, d, sid, "не знаю")
	assert.Equal(t, models.StageQuoteSum, res.Stage)
	assert.Equal(t, errSum, res.Reply)

	turn(t, d, sid, "5 млн")
	turn(t, d, sid, "станки")

	res = turn(t, d, sid, "возможно")
	assert.Equal(t, models.StageCargoConfirm, res.Stage)
	assert.Equal(t, replyConfirmRetry, res.Reply)

	turn(t, d, sid, "да")

	res = turn(t, d, sid, "зелёный")
	assert.Equal(t, models.StageQuoteCondition, res.Stage)
	assert.Equal(t, errCondition, res.Reply)

	turn(t, d, sid, "новый")

	res = turn(t, d, sid, "30000")
	assert.Equal(t, models.StageQuoteFranchise, res.Stage)
	assert.Equal(t, errFranchise, res.Reply)
}

func TestDialogConsultIntent(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	res := turn(t, d, sid, "хочу консультацию")
	assert.Equal(t, models.StageConsult, res.Stage)
	assert.Equal(t, models.IntentConsult, res.Intent)

	// Consult is a holding stage until the user asks for a quote.
	res = turn(t, d, sid, "а что вы умеете?")
	assert.Equal(t, models.StageConsult, res.Stage)

	res = turn(t, d, sid, "ладно, оформить")
	assert.Equal(t, models.StageQuoteSum, res.Stage)
	assert.Equal(t, models.IntentBuy, res.Intent)
}

func TestDialogQuotedAcceptance(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	for _, msg := range []string{"оформить", "5 млн", "станки", "да", "новый", "20000", "нет"} {
		turn(t, d, sid, msg)
	}
	res := turn(t, d, sid, "РФ")
	require.Equal(t, models.StageQuoted, res.Stage)

	res = turn(t, d, sid, "да")
	assert.Equal(t, models.StageNextPhase, res.Stage)
	assert.Equal(t, replyNextPhase, res.Reply)

	res = turn(t, d, sid, "спасибо")
	assert.Equal(t, models.StageIntentSelect, res.Stage)
	assert.Equal(t, replyFinished, res.Reply)
}

func TestDialogQuotedRejectionStartsOver(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	for _, msg := range []string{"оформить", "5 млн", "станки", "да", "новый", "20000", "нет"} {
		turn(t, d, sid, msg)
	}
	res := turn(t, d, sid, "РФ")
	require.Equal(t, models.StageQuoted, res.Stage)

	res = turn(t, d, sid, "нет")
	assert.Equal(t, models.StageIntentSelect, res.Stage)
	assert.Equal(t, replyStartOver, res.Reply)
}

func TestDialogMinimumPremiumApplied(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	// 200 000 * 0.0015 = 300, clamped to the 1500 floor.
	for _, msg := range []string{"оформить", "200 000", "станки", "да", "новый", "20000", "нет"} {
		turn(t, d, sid, msg)
	}
	res := turn(t, d, sid, "РФ")

	require.Equal(t, models.StageQuoted, res.Stage)
	require.NotNil(t, res.Data.PremiumRub)
	assert.Equal(t, int64(1500), *res.Data.PremiumRub)
	require.NotNil(t, res.Data.MinPremiumApplied)
	assert.True(t, *res.Data.MinPremiumApplied)
}

func TestDialogDebugTracesClassifier(t *testing.T) {
	d, _ := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 млн")

	res, err := d.HandleTurn(context.Background(), sid, "станки", true)
	require.NoError(t, err)
	require.NotNil(t, res.Debug)
	require.Len(t, res.Debug.ClassifierAttempts, 1)
	assert.Equal(t, classifier.StatusOK, res.Debug.ClassifierAttempts[0].Status)
	assert.Equal(t, "CARGO003", res.Debug.ClassifierAttempts[0].ClassID)
}

func TestDialogSessionStatePersistsAcrossTurns(t *testing.T) {
	d, store := newTestDialog(t, okClassifier("CARGO003"), nil)
	const sid = "s1"

	turn(t, d, sid, "оформить")
	turn(t, d, sid, "5 000 000")

	session, err := store.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, models.StageQuoteCargo, session.Stage)
	require.NotNil(t, session.Data.SumInsuredRub)
	assert.Equal(t, int64(5_000_000), *session.Data.SumInsuredRub)
}
