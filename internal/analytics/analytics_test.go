package analytics

import (
	"math"
	"testing"

	"budgetbook/internal/core"
)

func month(incomeCents int64, expenses ...core.Expense) *core.MonthRecord {
	return &core.MonthRecord{Income: core.Money{Cents: incomeCents}, Expenses: expenses}
}

func exp(id, name string, cents int64, category string, recurring bool) core.Expense {
	return core.Expense{ID: id, Name: name, Amount: core.Money{Cents: cents}, Category: category, Recurring: recurring}
}

func TestTotalsAcrossMonths(t *testing.T) {
	ledger := core.Ledger{
		"2025-01": month(300000, exp("1", "Rent", 120000, "housing", false)),
		"2025-02": month(300000, exp("2", "Rent", 120000, "housing", false), exp("3", "Food", 40000, "food", false)),
	}
	totals := TotalsAcrossMonths(ledger)
	if totals.TotalIncome.Cents != 600000 {
		t.Fatalf("income = %d", totals.TotalIncome.Cents)
	}
	if totals.TotalExpenses.Cents != 280000 {
		t.Fatalf("expenses = %d", totals.TotalExpenses.Cents)
	}
	if totals.TotalSaved.Cents != 320000 {
		t.Fatalf("saved = %d", totals.TotalSaved.Cents)
	}
	if totals.MonthCount != 2 {
		t.Fatalf("months = %d", totals.MonthCount)
	}
	if math.Abs(totals.AvgIncome-3000) > 1e-9 || math.Abs(totals.AvgExpenses-1400) > 1e-9 {
		t.Fatalf("averages = %f / %f", totals.AvgIncome, totals.AvgExpenses)
	}
}

func TestTotalsEmptyLedger(t *testing.T) {
	totals := TotalsAcrossMonths(core.Ledger{})
	if totals.MonthCount != 0 || totals.AvgIncome != 0 || totals.AvgExpenses != 0 {
		t.Fatalf("empty ledger must not divide by zero: %+v", totals)
	}
}

func TestBestAndWorstMonth(t *testing.T) {
	ledger := core.Ledger{
		"2025-01": month(300000, exp("1", "a", 100000, "other", false)), // saved 2000
		"2025-02": month(300000, exp("2", "b", 250000, "other", false)), // saved 500
		"2025-03": month(0, exp("3", "c", 5000, "other", false)),        // no income, excluded
	}
	best, worst := BestAndWorstMonth(ledger)
	if best == nil || worst == nil {
		t.Fatalf("expected standings")
	}
	if best.Key != "2025-01" || best.Saved.Cents != 200000 {
		t.Fatalf("best = %+v", best)
	}
	if worst.Key != "2025-02" || worst.Saved.Cents != 50000 {
		t.Fatalf("worst = %+v", worst)
	}

	best, worst = BestAndWorstMonth(core.Ledger{"2025-03": month(0, exp("3", "c", 5000, "other", false))})
	if best != nil || worst != nil {
		t.Fatalf("no positive-income month must yield nil standings")
	}
}

func TestCategoryBreakdown(t *testing.T) {
	ledger := core.Ledger{
		"2025-01": month(0,
			exp("1", "Rent", 120000, "housing", false),
			exp("2", "Food", 40000, "food", false),
		),
		"2025-02": month(0,
			exp("3", "Food", 40000, "food", false),
		),
	}
	breakdown := CategoryBreakdown(ledger)
	if len(breakdown) != 2 {
		t.Fatalf("breakdown = %+v", breakdown)
	}
	if breakdown[0].ID != "housing" || breakdown[0].Total.Cents != 120000 {
		t.Fatalf("expected housing first, got %+v", breakdown[0])
	}
	if breakdown[1].ID != "food" || breakdown[1].Total.Cents != 80000 {
		t.Fatalf("expected food second, got %+v", breakdown[1])
	}

	var sum float64
	for _, s := range breakdown {
		sum += s.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages must sum to 100, got %f", sum)
	}

	if got := CategoryBreakdown(core.Ledger{}); len(got) != 0 {
		t.Fatalf("empty ledger breakdown = %+v", got)
	}
}

func TestTopExpenses(t *testing.T) {
	ledger := core.Ledger{
		"2025-01": month(0,
			exp("1", "Rent", 120000, "housing", false),
			exp("2", "Tie A", 5000, "food", false),
		),
		"2025-02": month(0,
			exp("3", "Tie B", 5000, "food", false),
			exp("4", "Car", 80000, "transport", false),
		),
	}
	top := TopExpenses(ledger, 3)
	if len(top) != 3 {
		t.Fatalf("top = %+v", top)
	}
	if top[0].Name != "Rent" || top[1].Name != "Car" {
		t.Fatalf("ordering wrong: %+v", top)
	}
	// Tie broken by original order: 2025-01 before 2025-02.
	if top[2].Name != "Tie A" || top[2].Month != "2025-01" {
		t.Fatalf("tie break wrong: %+v", top[2])
	}

	if got := TopExpenses(ledger, 10); len(got) != 4 {
		t.Fatalf("n larger than population should return all, got %d", len(got))
	}
}

func TestBudgetScoreBands(t *testing.T) {
	// A single month with fixed income; expenses tuned per target rate.
	scoreFor := func(incomeCents, expenseCents int64) float64 {
		return BudgetScore(core.Ledger{
			"2025-01": month(incomeCents, exp("1", "x", expenseCents, "other", false)),
		})
	}
	cases := []struct {
		income, expenses int64
		want             float64
	}{
		{100000, 60000, 100},  // rate 40
		{100000, 70000, 100},  // rate 30
		{100000, 75000, 90},   // rate 25
		{100000, 85000, 75},   // rate 15
		{100000, 93000, 60},   // rate 7
		{100000, 98000, 50},   // rate 2
		{100000, 100000, 50},  // rate 0
		{100000, 120000, 30},  // rate -20 -> 50-20
		{100000, 200000, 0},   // rate -100 -> floored
	}
	for i, tc := range cases {
		if got := scoreFor(tc.income, tc.expenses); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("case %d: score = %f, want %f", i, got, tc.want)
		}
	}
	if got := BudgetScore(core.Ledger{}); got != 0 {
		t.Fatalf("empty ledger score = %f", got)
	}
	if got := scoreFor(0, 5000); got != 0 {
		t.Fatalf("zero income score = %f", got)
	}
}

func TestBudgetScoreMonotonic(t *testing.T) {
	// Score must be non-decreasing as the savings rate rises.
	prev := -1.0
	for expenses := int64(300000); expenses >= 0; expenses -= 10000 {
		score := BudgetScore(core.Ledger{
			"2025-01": month(100000, exp("1", "x", expenses, "other", false)),
		})
		if score < prev {
			t.Fatalf("score decreased as savings rate rose: %f -> %f at expenses %d", prev, score, expenses)
		}
		prev = score
	}
}

func TestMonthOverMonthTrend(t *testing.T) {
	ledger := core.Ledger{
		"2025-01": month(0, exp("1", "a", 50000, "other", false)),
		"2025-02": month(0, exp("2", "b", 80000, "other", false)),
	}
	trend := MonthOverMonthTrend(ledger, "2025-02")
	if trend == nil {
		t.Fatalf("expected a trend")
	}
	if math.Abs(trend.ChangePercent-60) > 1e-9 || !trend.IsIncrease {
		t.Fatalf("trend = %+v", trend)
	}

	// Earliest known month has nothing to compare against.
	if got := MonthOverMonthTrend(ledger, "2025-01"); got != nil {
		t.Fatalf("earliest month trend = %+v", got)
	}
	// Fewer than two known months.
	if got := MonthOverMonthTrend(core.Ledger{"2025-01": month(0)}, "2025-01"); got != nil {
		t.Fatalf("single month trend = %+v", got)
	}
	// Previous month with zero spending: percentage undefined.
	zeroPrev := core.Ledger{
		"2025-01": month(100000),
		"2025-02": month(0, exp("2", "b", 80000, "other", false)),
	}
	if got := MonthOverMonthTrend(zeroPrev, "2025-02"); got != nil {
		t.Fatalf("zero-previous trend = %+v", got)
	}
}

func TestTrendSkipsGapsToPrecedingKnownMonth(t *testing.T) {
	ledger := core.Ledger{
		"2024-11": month(0, exp("1", "a", 100000, "other", false)),
		"2025-02": month(0, exp("2", "b", 50000, "other", false)),
	}
	trend := MonthOverMonthTrend(ledger, "2025-02")
	if trend == nil {
		t.Fatalf("expected a trend across the gap")
	}
	if trend.Previous.Cents != 100000 || trend.IsIncrease {
		t.Fatalf("trend = %+v", trend)
	}
	if math.Abs(trend.ChangePercent-(-50)) > 1e-9 {
		t.Fatalf("change = %f", trend.ChangePercent)
	}
}
