// Package alerts classifies per-category spending against configured limits
// and fires at most one over-limit notification per (month, category) pair
// per process lifetime.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"budgetbook/internal/core"
)

// Notifier delivers an over-limit notification. Display mechanics (browser
// push, desktop toast, ...) are entirely its concern.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Status is one category's standing against its configured limit.
type Status struct {
	Category       core.Category `json:"category"`
	Limit          core.Money    `json:"limit"`
	Spent          core.Money    `json:"spent"`
	PercentOfLimit float64       `json:"percentOfLimit"`
	NearLimit      bool          `json:"nearLimit"`
	OverLimit      bool          `json:"overLimit"`
}

type suppressionKey struct {
	month    core.MonthKey
	category string
}

// Evaluator derives limit statuses and owns the session-lifetime suppression
// set. The set lives in memory only, so a restart re-arms alerts.
type Evaluator struct {
	mu       sync.Mutex
	notified map[suppressionKey]struct{}
	notifier Notifier
}

// NewEvaluator creates an Evaluator. A nil notifier disables delivery but
// statuses are still computed.
func NewEvaluator(notifier Notifier) *Evaluator {
	return &Evaluator{
		notified: make(map[suppressionKey]struct{}),
		notifier: notifier,
	}
}

// Evaluate classifies every category with a configured limit in the record.
// Near-limit means spending at 80-100% of the limit inclusive; over-limit
// means spending strictly above it, so the two are mutually exclusive.
// Newly over-limit categories trigger one notification each.
func (ev *Evaluator) Evaluate(ctx context.Context, key core.MonthKey, record *core.MonthRecord) []Status {
	spent := record.SpentByCategory()

	var out []Status
	for _, cat := range core.Categories() {
		limit, ok := record.Limits[cat.ID]
		if !ok {
			continue
		}
		s := Status{
			Category: cat,
			Limit:    limit,
			Spent:    spent[cat.ID],
		}
		s.PercentOfLimit = 100 * float64(s.Spent.Cents) / float64(limit.Cents)
		s.OverLimit = s.Spent.Cents > limit.Cents
		s.NearLimit = !s.OverLimit && s.Spent.Cents*10 >= limit.Cents*8
		out = append(out, s)

		if s.OverLimit {
			ev.notifyOnce(ctx, key, s)
		}
	}
	return out
}

// notifyOnce fires the over-limit notification unless the (month, category)
// pair already alerted this session. Spending that drops back under the limit
// and exceeds it again does not re-alert.
func (ev *Evaluator) notifyOnce(ctx context.Context, key core.MonthKey, s Status) {
	k := suppressionKey{month: key, category: s.Category.ID}

	ev.mu.Lock()
	if _, seen := ev.notified[k]; seen {
		ev.mu.Unlock()
		return
	}
	ev.notified[k] = struct{}{}
	ev.mu.Unlock()

	if ev.notifier == nil {
		return
	}
	title := fmt.Sprintf("Limit exceeded: %s", s.Category.Name)
	body := fmt.Sprintf("You spent %s of your %s limit for %s (%.0f%%).",
		s.Spent.Format(), s.Limit.Format(), key, s.PercentOfLimit)
	if err := ev.notifier.Notify(ctx, title, body); err != nil {
		slog.ErrorContext(ctx, "Over-limit notification failed",
			"error", err, "month", key, "category", s.Category.ID)
	}
}

// LogNotifier writes notifications to the structured log. It is the fallback
// delivery channel when no external notifier is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, title, body string) error {
	slog.InfoContext(ctx, "Notification", "title", title, "body", body)
	return nil
}
