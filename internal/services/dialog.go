package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cargoquote-backend/internal/classifier"
	"cargoquote-backend/internal/extract"
	"cargoquote-backend/internal/models"
	"cargoquote-backend/internal/storage"
	"cargoquote-backend/internal/tariff"
)

// CargoClassifier is the classification capability the dialog depends on.
// *classifier.Adapter satisfies it.
type CargoClassifier interface {
	Classify(ctx context.Context, desc string) (classifier.Result, []classifier.Attempt)
}

// TurnResult is the outcome of one processed conversational turn.
type TurnResult struct {
	SessionID string           `json:"session_id"`
	Reply     string           `json:"reply"`
	Stage     models.Stage     `json:"stage"`
	Intent    models.Intent    `json:"intent"`
	Data      models.QuoteData `json:"data"`
	Debug     *TurnDebug       `json:"debug,omitempty"`
}

// TurnDebug traces the external calls of a single turn. Attached only when
// the caller explicitly asked for it.
type TurnDebug struct {
	ClassifierAttempts []classifier.Attempt `json:"classifier_attempts,omitempty"`
	Rating             *RatingTrace         `json:"rating,omitempty"`
}

// RatingTrace records the rating call of a turn.
type RatingTrace struct {
	Decision string   `json:"decision,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// DialogService is the conversation state machine: it validates and
// accumulates fields, invokes the classifier and the rating engine at the
// right transitions, and emits exactly one outbound prompt per turn.
type DialogService struct {
	store      storage.Store
	locks      *storage.KeyMutex
	classifier CargoClassifier
	rating     RatingClient
	ttl        time.Duration
	maxRetries int
	now        func() time.Time
}

// NewDialogService wires the state machine with its collaborators.
// maxRetries bounds user-triggered classification re-attempts before the
// dialog degrades to manual selection.
func NewDialogService(store storage.Store, cls CargoClassifier, rating RatingClient, ttl time.Duration, maxRetries int) *DialogService {
	return &DialogService{
		store:      store,
		locks:      storage.NewKeyMutex(),
		classifier: cls,
		rating:     rating,
		ttl:        ttl,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// HandleTurn processes one inbound message for a session. Turns for the
// same session key are serialized; distinct sessions run concurrently.
func (d *DialogService) HandleTurn(ctx context.Context, sessionID, message string, debug bool) (*TurnResult, error) {
	unlock := d.locks.Lock(sessionID)
	defer unlock()

	session, err := d.store.Get(sessionID)
	if err != nil {
		if err != storage.ErrNotFound {
			return nil, err
		}
		session = models.NewSession(sessionID, d.now(), d.ttl)
	}
	session.Touch(d.now(), d.ttl)

	var dbg *TurnDebug
	if debug {
		dbg = &TurnDebug{}
	}

	reply := d.step(ctx, session, strings.TrimSpace(message), dbg)

	if err := d.store.Save(session); err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID: session.ID,
		Reply:     reply,
		Stage:     session.Stage,
		Intent:    session.Intent,
		Data:      session.Data,
		Debug:     dbg,
	}, nil
}

// step runs one transition of the state machine. Every branch mutates at
// most the fields relevant to its stage and returns one reply.
func (d *DialogService) step(ctx context.Context, s *models.Session, message string, dbg *TurnDebug) string {
	switch s.Stage {

	case models.StageWelcome:
		// The greeting is emitted once; the first message is then handled
		// as an intent answer in the same turn.
		s.Stage = models.StageIntentSelect
		if message == "" {
			return replyGreeting
		}
		return replyGreeting + "\n\n" + d.step(ctx, s, message, dbg)

	case models.StageIntentSelect:
		switch detectIntent(message) {
		case models.IntentConsult:
			s.Intent = models.IntentConsult
			s.Stage = models.StageConsult
			return replyConsult
		case models.IntentBuy:
			s.Intent = models.IntentBuy
			s.Stage = models.StageQuoteSum
			return promptSum
		default:
			return replyIntentRetry
		}

	case models.StageConsult:
		if detectIntent(message) == models.IntentBuy {
			s.Intent = models.IntentBuy
			s.Stage = models.StageQuoteSum
			return promptSum
		}
		return replyConsult

	case models.StageQuoteSum:
		sum, ok := extract.Money(message)
		if !ok {
			return errSum
		}
		s.Data.SumInsuredRub = &sum
		s.Stage = models.StageQuoteCargo
		return promptCargo

	case models.StageQuoteCargo:
		s.Data.CargoDesc = message
		s.Retries = 0
		return d.classifyCargo(ctx, s, dbg)

	case models.StageCargoConfirm:
		yes, ok := extract.YesNo(message)
		if !ok {
			return replyConfirmRetry
		}
		if yes {
			s.Data.CargoClassID = s.Pending.ProposedID
			s.Pending = nil
			s.Stage = models.StageQuoteCondition
			return promptCondition
		}
		s.Pending = nil
		s.Data.CargoClassID = ""
		s.Data.CargoDesc = ""
		s.Stage = models.StageQuoteCargo
		return replyCargoAgain

	case models.StageCargoRetry:
		s.Retries++
		return d.classifyCargo(ctx, s, dbg)

	case models.StageCargoChoose:
		id, ok := extract.MenuChoice(message)
		if !ok {
			return errMenu + "\n\n" + cargoMenu()
		}
		s.Data.CargoClassID = id
		s.Stage = models.StageQuoteCondition
		return promptCondition

	case models.StageQuoteCondition:
		condition, ok := extract.Condition(message)
		if !ok {
			return errCondition
		}
		s.Data.Condition = condition
		s.Stage = models.StageQuoteFranchise
		return promptFranchise

	case models.StageQuoteFranchise:
		franchise, ok := extract.Franchise(message)
		if !ok {
			return errFranchise
		}
		s.Data.FranchiseRub = &franchise
		s.Stage = models.StageQuoteReefer
		return promptReefer

	case models.StageQuoteReefer:
		reefer, ok := extract.Reefer(message)
		if !ok {
			return errReefer
		}
		s.Data.IsReefer = &reefer
		s.Stage = models.StageQuoteRoute
		return promptRoute

	case models.StageQuoteRoute:
		zone, ok := extract.RouteZone(message)
		if !ok {
			return errRoute
		}
		s.Data.RouteZone = zone
		if missing := s.Data.MissingFields(); len(missing) > 0 {
			// Should not happen: every prior stage validated its field.
			log.Printf("Session %s reached rating with missing fields: %v", s.ID, missing)
			s.Stage = models.StageQuoteSum
			return replyRestart
		}
		return d.rateAndDecide(ctx, s, dbg)

	case models.StageQuoted:
		yes, ok := extract.YesNo(message)
		if !ok {
			return replyConfirmRetry
		}
		if yes {
			s.Stage = models.StageNextPhase
			return replyNextPhase
		}
		s.Stage = models.StageIntentSelect
		return replyStartOver

	case models.StageRefer:
		yes, ok := extract.YesNo(message)
		if !ok {
			return replyConfirmRetry
		}
		if yes {
			s.Stage = models.StageHandoff
			return replyHandoff
		}
		s.Stage = models.StageIntentSelect
		return replyStartOver

	case models.StageNextPhase, models.StageHandoff:
		s.Stage = models.StageIntentSelect
		return replyFinished

	default:
		log.Printf("Session %s is at unknown stage %q - resetting", s.ID, s.Stage)
		s.Stage = models.StageIntentSelect
		return replyIntentRetry
	}
}

// classifyCargo runs the classifier on the stored description and routes
// the tri-state outcome. Called from quote_cargo (fresh text, counter reset)
// and from cargo_retry (counter already incremented).
func (d *DialogService) classifyCargo(ctx context.Context, s *models.Session, dbg *TurnDebug) string {
	result, attempts := d.classifier.Classify(ctx, s.Data.CargoDesc)
	if dbg != nil {
		dbg.ClassifierAttempts = append(dbg.ClassifierAttempts, attempts...)
	}

	switch result.Status {
	case classifier.StatusOK:
		name, _ := models.CargoClassName(result.ClassID)
		s.Pending = &models.CargoProposal{ProposedID: result.ClassID, ProposedName: name}
		s.Stage = models.StageCargoConfirm
		return fmt.Sprintf(replyCargoProposal, name)

	case classifier.StatusError:
		if s.Retries <= d.maxRetries {
			s.Stage = models.StageCargoRetry
			return replyClassifierDown
		}
		s.Stage = models.StageCargoChoose
		return replyChooseManually + "\n\n" + cargoMenu()

	default: // uncertain
		s.Stage = models.StageCargoChoose
		return replyChooseManually + "\n\n" + cargoMenu()
	}
}

// rateAndDecide invokes the rating capability with the five collected facts
// and maps its decision onto the terminal collection stages.
func (d *DialogService) rateAndDecide(ctx context.Context, s *models.Session, dbg *TurnDebug) string {
	facts := tariff.Facts{
		CargoClassID:  s.Data.CargoClassID,
		SumInsuredRub: decimal.NewFromInt(*s.Data.SumInsuredRub),
		Condition:     s.Data.Condition,
		FranchiseRub:  *s.Data.FranchiseRub,
		IsReefer:      *s.Data.IsReefer,
		RouteZone:     s.Data.RouteZone,
	}

	outcome, err := d.rating.Rate(ctx, facts)
	if err != nil {
		log.Printf("Rating call failed for session %s: %v", s.ID, err)
		if dbg != nil {
			dbg.Rating = &RatingTrace{Error: err.Error()}
		}
		// Hard failure for this turn: the stage does not advance.
		return replyRatingFailed
	}
	if dbg != nil {
		dbg.Rating = &RatingTrace{Decision: string(outcome.Decision), Reasons: outcome.Reasons}
	}

	switch outcome.Decision {
	case tariff.DecisionAutoOK:
		if outcome.PremiumRub == nil {
			log.Printf("Rating returned AUTO_OK without a premium for session %s", s.ID)
			return replyRatingFailed
		}
		s.Data.PremiumRub = outcome.PremiumRub
		s.Data.MinPremiumApplied = outcome.MinPremiumApplied
		s.Stage = models.StageQuoted
		return fmt.Sprintf(replyQuoted, *outcome.PremiumRub)

	case tariff.DecisionDecline:
		s.Stage = models.StageRefer
		return fmt.Sprintf(replyDeclined, reasonsText(outcome.Reasons, "условия не подходят"))

	default: // REFER
		s.Stage = models.StageRefer
		return fmt.Sprintf(replyReferred, reasonsText(outcome.Reasons, "нужна проверка"))
	}
}

var buyTokens = []string{"оформ", "куп", "застрах", "рассчит", "расчёт", "расчет", "полис"}
var consultTokens = []string{"консульт", "вопрос", "узнать", "спрос"}

// detectIntent recognizes a consult or buy intent in free text; consult
// tokens are checked first.
func detectIntent(message string) models.Intent {
	tl := strings.ToLower(message)
	for _, token := range consultTokens {
		if strings.Contains(tl, token) {
			return models.IntentConsult
		}
	}
	for _, token := range buyTokens {
		if strings.Contains(tl, token) {
			return models.IntentBuy
		}
	}
	return models.IntentUnset
}

// cargoMenu renders the numbered whitelist for manual selection.
func cargoMenu() string {
	var b strings.Builder
	b.WriteString("Выберите категорию груза (отправьте номер или код):")
	for i, c := range models.CargoClasses {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Name)
	}
	return b.String()
}

func reasonsText(reasons []string, fallback string) string {
	if len(reasons) == 0 {
		return fallback
	}
	return strings.Join(reasons, ", ")
}

// Outbound prompts. One per transition; the wording follows the original
// service.
const (
	replyGreeting       = "Здравствуйте! Я помогу рассчитать страхование вашей перевозки. Хотите получить консультацию или оформить полис?"
	replyIntentRetry    = "Подскажите, что вас интересует: консультация или оформление полиса?"
	replyConsult        = "Я пока умею только рассчитывать стоимость полиса. Напишите «оформить», когда будете готовы к расчёту."
	promptSum           = "Какая страховая сумма (в рублях) по этой перевозке?"
	errSum              = "Не понял сумму. Укажите страховую сумму в рублях, например: «5 000 000» или «5 млн»."
	promptCargo         = "Что вы перевозите (например: микроволновки, станок ЧПУ, шприцы)?"
	replyCargoProposal  = "Похоже, ваш груз относится к категории: «%s». Верно? (да/нет)"
	replyConfirmRetry   = "Пожалуйста, ответьте «да» или «нет»."
	replyCargoAgain     = "Ок, уточните, пожалуйста: что именно вы перевозите? (1–3 слова)"
	replyClassifierDown = "Сервис классификации сейчас недоступен. Подождите немного и отправьте любое сообщение — я попробую ещё раз."
	replyChooseManually = "Не смог однозначно определить категорию груза."
	errMenu             = "Не понял выбор. Отправьте номер категории из списка или её код."
	promptCondition     = "Груз новый или б/у? (NEW = новый, USED = б/у)"
	errCondition        = "Не понял состояние груза. Ответьте «новый» или «б/у»."
	promptFranchise     = "Выберите франшизу: 20 000 ₽ или 50 000 ₽?"
	errFranchise        = "Доступны только франшизы 20 000 ₽ и 50 000 ₽. Какую выбираете?"
	promptReefer        = "Нужен рефрижератор? (да/нет)"
	errReefer           = "Не понял. Нужен рефрижератор? Ответьте «да» или «нет»."
	promptRoute         = "Выберите зону маршрута: РФ / СНГ-РФ / ВЕСЬ МИР-РФ"
	errRoute            = "Не понял зону маршрута. Варианты: РФ / СНГ-РФ / ВЕСЬ МИР-РФ."
	replyRestart        = "Кажется, часть данных потерялась. Давайте начнём заново. " + promptSum
	replyRatingFailed   = "Не получилось рассчитать стоимость. Попробуйте ещё раз чуть позже."
	replyQuoted         = "Стоимость полиса: %d ₽. Согласны оформить? (да/нет)"
	replyDeclined       = "Онлайн-оформление недоступно: %s. Хотите передать заявку менеджеру? (да/нет)"
	replyReferred       = "Нужно согласование: %s. Хотите передать заявку менеджеру? (да/нет)"
	replyNextPhase      = "Отлично. Следующий шаг — оформление (контактные данные и реквизиты). Мы свяжемся с вами."
	replyHandoff        = "Передаю заявку менеджеру. С вами свяжутся в ближайшее время."
	replyStartOver      = "Ок. Хотите изменить параметры или рассчитать другой груз? Напишите «оформить» для нового расчёта."
	replyFinished       = "Этот расчёт завершён. Хотите консультацию или новый расчёт?"
)
