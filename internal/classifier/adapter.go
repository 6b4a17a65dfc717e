// Package classifier wraps the external cargo classification capability.
// The adapter never fails: every invocation ends in one of three outcomes
// (ok, uncertain or error) after a bounded number of attempts with linear
// backoff in between.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cargoquote-backend/internal/models"
)

// Status is the tri-state classification outcome.
type Status string

const (
	StatusOK        Status = "ok"
	StatusUncertain Status = "uncertain"
	StatusError     Status = "error"
)

// Result is the final outcome of one Classify invocation.
type Result struct {
	Status  Status `json:"status"`
	ClassID string `json:"cargo_class_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Attempt records a single call for the debug trace.
type Attempt struct {
	Number  int    `json:"number"`
	Status  Status `json:"status"`
	ClassID string `json:"cargo_class_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ChatCompleter is the external text-completion capability. A nil completer
// means the capability is not configured.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Adapter drives classification attempts against a ChatCompleter.
type Adapter struct {
	llm       ChatCompleter
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// DefaultAttempts is the per-invocation attempt budget.
const DefaultAttempts = 3

// New creates an adapter performing up to attempts calls per invocation,
// sleeping attempt×baseDelay between consecutive calls.
func New(llm ChatCompleter, attempts int, baseDelay time.Duration) *Adapter {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Adapter{
		llm:       llm,
		attempts:  attempts,
		baseDelay: baseDelay,
		sleep:     sleepWithContext,
	}
}

// sleepWithContext waits for d or until the context is done, whichever comes
// first, without leaking the timer.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Configured reports whether the external capability is wired up.
func (a *Adapter) Configured() bool {
	return a.llm != nil
}

// Classify maps a free-text cargo description onto the whitelist. The first
// attempt that produces ok short-circuits; otherwise the outcome is error if
// the last attempt was a call failure, else uncertain with the most recent
// non-empty rationale. The returned attempts slice is the debug trace.
func (a *Adapter) Classify(ctx context.Context, desc string) (Result, []Attempt) {
	attempts := make([]Attempt, 0, a.attempts)
	var lastReason string

	for i := 1; i <= a.attempts; i++ {
		res := a.attempt(ctx, desc)
		attempts = append(attempts, Attempt{
			Number:  i,
			Status:  res.Status,
			ClassID: res.ClassID,
			Reason:  res.Reason,
		})

		if res.Status == StatusOK {
			return res, attempts
		}
		if res.Reason != "" {
			lastReason = res.Reason
		}

		if i < a.attempts {
			if err := a.sleep(ctx, time.Duration(i)*a.baseDelay); err != nil {
				// The caller's deadline hit mid-backoff; surface a call failure.
				return Result{Status: StatusError, Reason: err.Error()}, attempts
			}
		}
	}

	last := attempts[len(attempts)-1]
	if last.Status == StatusError {
		return Result{Status: StatusError, Reason: lastReason}, attempts
	}
	return Result{Status: StatusUncertain, Reason: lastReason}, attempts
}

// classifierReply is the JSON object the capability is instructed to return.
type classifierReply struct {
	CargoClassID *string `json:"cargo_class_id"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

func (a *Adapter) attempt(ctx context.Context, desc string) Result {
	if a.llm == nil {
		return Result{Status: StatusError, Reason: "classifier not configured"}
	}

	text, err := a.llm.Complete(ctx, systemPrompt(), userPrompt(desc))
	if err != nil {
		return Result{Status: StatusError, Reason: err.Error()}
	}

	var reply classifierReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		// An unparseable response counts as a failed call, same as transport
		// errors.
		return Result{Status: StatusError, Reason: "cannot parse classification"}
	}

	if reply.CargoClassID != nil && models.IsCargoClass(*reply.CargoClassID) {
		return Result{Status: StatusOK, ClassID: *reply.CargoClassID, Reason: reply.Reason}
	}

	reason := reply.Reason
	if reason == "" {
		reason = "not in whitelist"
	}
	return Result{Status: StatusUncertain, Reason: reason}
}

func systemPrompt() string {
	whitelist := make(map[string]string, len(models.CargoClasses))
	for _, c := range models.CargoClasses {
		whitelist[c.ID] = c.Name
	}
	wl, _ := json.Marshal(whitelist)

	return "Ты классификатор грузов для страхования перевозок. " +
		"Тебе дано описание груза и белый список допустимых классов. " +
		"Верни строго JSON без пояснений вокруг. " +
		"Если не уверен или груз не подходит — верни cargo_class_id=null.\n\n" +
		"Белый список (id -> name): " + string(wl)
}

func userPrompt(desc string) string {
	return fmt.Sprintf("Описание груза: %s\nВерни JSON: {\"cargo_class_id\": string|null, \"confidence\": 0..1, \"reason\": string}", desc)
}
