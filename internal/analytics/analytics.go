// Package analytics derives statistics from ledger snapshots. Every function
// here is a pure read: nothing mutates the ledger.
package analytics

import (
	"sort"

	"budgetbook/internal/core"
)

// Totals aggregates income and spending across every known month.
type Totals struct {
	TotalIncome   core.Money `json:"totalIncome"`
	TotalExpenses core.Money `json:"totalExpenses"`
	TotalSaved    core.Money `json:"totalSaved"`
	AvgIncome     float64    `json:"avgIncome"`
	AvgExpenses   float64    `json:"avgExpenses"`
	MonthCount    int        `json:"monthCount"`
}

// TotalsAcrossMonths sums every month's income and expenses. Averages are in
// currency units and guard against an empty ledger.
func TotalsAcrossMonths(ledger core.Ledger) Totals {
	t := Totals{MonthCount: len(ledger)}
	for _, r := range ledger {
		t.TotalIncome = t.TotalIncome.Add(r.Income)
		t.TotalExpenses = t.TotalExpenses.Add(r.TotalExpenses())
	}
	t.TotalSaved = t.TotalIncome.Sub(t.TotalExpenses)
	if t.MonthCount > 0 {
		t.AvgIncome = t.TotalIncome.Units() / float64(t.MonthCount)
		t.AvgExpenses = t.TotalExpenses.Units() / float64(t.MonthCount)
	}
	return t
}

// MonthStanding ranks one month by the amount saved.
type MonthStanding struct {
	Key      core.MonthKey `json:"key"`
	Income   core.Money    `json:"income"`
	Expenses core.Money    `json:"expenses"`
	Saved    core.Money    `json:"saved"`
}

// BestAndWorstMonth ranks months with positive income by saved = income -
// expenses. Both results are nil when no month has positive income.
func BestAndWorstMonth(ledger core.Ledger) (best, worst *MonthStanding) {
	for _, key := range ledger.SortedKeys() {
		r := ledger[key]
		if !r.Income.IsPositive() {
			continue
		}
		standing := MonthStanding{
			Key:      key,
			Income:   r.Income,
			Expenses: r.TotalExpenses(),
			Saved:    r.Remaining(),
		}
		if best == nil || standing.Saved.Cents > best.Saved.Cents {
			s := standing
			best = &s
		}
		if worst == nil || standing.Saved.Cents < worst.Saved.Cents {
			s := standing
			worst = &s
		}
	}
	return best, worst
}

// CategorySlice is one category's share of overall spending.
type CategorySlice struct {
	core.Category
	Total      core.Money `json:"total"`
	Percentage float64    `json:"percentage"`
}

// CategoryBreakdown sums spending per category across all months. Only
// categories with spending appear, sorted descending by total; ties keep
// registry order.
func CategoryBreakdown(ledger core.Ledger) []CategorySlice {
	totals := make(map[string]core.Money)
	var overall core.Money
	for _, r := range ledger {
		for _, e := range r.Expenses {
			totals[e.Category] = totals[e.Category].Add(e.Amount)
			overall = overall.Add(e.Amount)
		}
	}

	out := make([]CategorySlice, 0, len(totals))
	for _, c := range core.Categories() {
		total, ok := totals[c.ID]
		if !ok || !total.IsPositive() {
			continue
		}
		slice := CategorySlice{Category: c, Total: total}
		if overall.IsPositive() {
			slice.Percentage = 100 * float64(total.Cents) / float64(overall.Cents)
		}
		out = append(out, slice)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// MonthExpense is an expense annotated with the month it belongs to.
type MonthExpense struct {
	core.Expense
	Month core.MonthKey `json:"month"`
}

// TopExpenses flattens every expense from every month and returns the n
// largest by amount. Ties keep the original order: insertion order within a
// month, months chronological.
func TopExpenses(ledger core.Ledger, n int) []MonthExpense {
	var all []MonthExpense
	for _, key := range ledger.SortedKeys() {
		for _, e := range ledger[key].Expenses {
			all = append(all, MonthExpense{Expense: e, Month: key})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Amount.Cents > all[j].Amount.Cents
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// BudgetScore condenses the overall savings rate into a 0-100 heuristic.
// Zero income scores zero. The score is banded above a zero savings rate and
// degrades linearly below 50 as savings go negative, floored at 0.
func BudgetScore(ledger core.Ledger) float64 {
	t := TotalsAcrossMonths(ledger)
	if !t.TotalIncome.IsPositive() {
		return 0
	}
	rate := 100 * float64(t.TotalSaved.Cents) / float64(t.TotalIncome.Cents)
	switch {
	case rate >= 30:
		return 100
	case rate >= 20:
		return 90
	case rate >= 10:
		return 75
	case rate >= 5:
		return 60
	case rate >= 0:
		return 50
	default:
		if score := 50 + rate; score > 0 {
			return score
		}
		return 0
	}
}

// Trend compares a month's spending to the immediately preceding known month.
type Trend struct {
	Current       core.Money `json:"current"`
	Previous      core.Money `json:"previous"`
	ChangePercent float64    `json:"changePercent"`
	IsIncrease    bool       `json:"isIncrease"`
}

// MonthOverMonthTrend returns nil when fewer than two months are known, when
// currentKey is the earliest known month, or when the preceding known month
// spent nothing (percentage change undefined).
func MonthOverMonthTrend(ledger core.Ledger, currentKey core.MonthKey) *Trend {
	if len(ledger) < 2 {
		return nil
	}
	var prevKey core.MonthKey
	found := false
	for key := range ledger {
		if !key.Before(currentKey) {
			continue
		}
		if !found || prevKey.Before(key) {
			prevKey = key
			found = true
		}
	}
	if !found {
		return nil
	}
	previous := ledger[prevKey].TotalExpenses()
	if !previous.IsPositive() {
		return nil
	}
	var current core.Money
	if r, ok := ledger[currentKey]; ok {
		current = r.TotalExpenses()
	}
	return &Trend{
		Current:       current,
		Previous:      previous,
		ChangePercent: 100 * float64(current.Cents-previous.Cents) / float64(previous.Cents),
		IsIncrease:    current.Cents > previous.Cents,
	}
}
