package analytics

import (
	"fmt"

	"budgetbook/internal/core"
)

// Recommendation levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
)

// Recommendation is one advisory message derived from the ledger.
type Recommendation struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Recommendations evaluates a fixed set of independent threshold rules over
// the ledger, the month-over-month trend and the budget score. Rules fire
// independently and in a fixed order, so the output is deterministic.
func Recommendations(ledger core.Ledger, trend *Trend, score float64) []Recommendation {
	var out []Recommendation

	t := TotalsAcrossMonths(ledger)
	var rate float64
	if t.TotalIncome.IsPositive() {
		rate = 100 * float64(t.TotalSaved.Cents) / float64(t.TotalIncome.Cents)
	}

	if t.TotalIncome.IsPositive() && rate < 10 {
		out = append(out, Recommendation{
			Level:   LevelWarning,
			Message: fmt.Sprintf("Your savings rate is %.1f%%. Try to set aside at least 10%% of your income.", rate),
		})
	}
	if t.TotalIncome.IsPositive() && rate >= 20 {
		out = append(out, Recommendation{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("Great savings rate: %.1f%% of your income stays with you.", rate),
		})
	}

	if breakdown := CategoryBreakdown(ledger); len(breakdown) > 0 && breakdown[0].Percentage > 40 {
		out = append(out, Recommendation{
			Level: LevelWarning,
			Message: fmt.Sprintf("%s takes %.1f%% of your spending. Consider spreading expenses more evenly.",
				breakdown[0].Name, breakdown[0].Percentage),
		})
	}

	if count, avg := recurringAverage(ledger); count > 0 {
		out = append(out, Recommendation{
			Level: LevelInfo,
			Message: fmt.Sprintf("You have %d recurring expenses averaging %s per item.",
				count, avg.Format()),
		})
	}

	if trend != nil && trend.IsIncrease && trend.ChangePercent > 15 {
		out = append(out, Recommendation{
			Level:   LevelWarning,
			Message: fmt.Sprintf("Spending is up %.1f%% compared to the previous month.", trend.ChangePercent),
		})
	}
	if trend != nil && !trend.IsIncrease && trend.ChangePercent < -10 {
		out = append(out, Recommendation{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("Spending is down %.1f%% compared to the previous month. Keep it up.", -trend.ChangePercent),
		})
	}

	if score >= 90 {
		out = append(out, Recommendation{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("Budget score %.0f/100. Your budget is in excellent shape.", score),
		})
	}
	if score < 50 {
		out = append(out, Recommendation{
			Level:   LevelWarning,
			Message: fmt.Sprintf("Budget score %.0f/100. Spending regularly exceeds income.", score),
		})
	}

	return out
}

// recurringAverage returns how many recurring expenses exist across all
// months and their mean amount.
func recurringAverage(ledger core.Ledger) (int, core.Money) {
	var total core.Money
	count := 0
	for _, r := range ledger {
		for _, e := range r.Expenses {
			if e.Recurring {
				total = total.Add(e.Amount)
				count++
			}
		}
	}
	if count == 0 {
		return 0, core.Money{}
	}
	return count, core.Money{Cents: total.Cents / int64(count)}
}
