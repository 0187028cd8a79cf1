package google

import (
	"testing"

	"budgetbook/internal/core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ledger := core.Ledger{
		"2025-02": &core.MonthRecord{
			Income:          core.Money{Cents: 250000},
			IncomeRecurring: true,
			Expenses: []core.Expense{
				{ID: "1", Name: "Rent", Amount: core.Money{Cents: 90000}, Category: "housing", Recurring: true},
				{ID: "2", Name: "Cinema", Amount: core.Money{Cents: 1500}, Category: "entertainment"},
			},
			Limits: map[string]core.Money{"food": {Cents: 50000}},
		},
	}

	decoded := decodeRows(encodeLedger(ledger))
	record, ok := decoded["2025-02"]
	if !ok {
		t.Fatalf("month lost in round trip: %v", decoded)
	}
	if record.Income.Cents != 250000 || !record.IncomeRecurring {
		t.Fatalf("income: %+v", record)
	}
	if len(record.Expenses) != 2 || record.Expenses[0].ID != "1" || !record.Expenses[0].Recurring {
		t.Fatalf("expenses: %+v", record.Expenses)
	}
	if record.Limits["food"].Cents != 50000 {
		t.Fatalf("limits: %+v", record.Limits)
	}
}

func TestDecodeSkipsBadRows(t *testing.T) {
	values := [][]any{
		{"not-a-month", "income", "", "", "100", "", "false"},
		{"2025-02", "income", "", "", "abc", "", "false"},
		{"2025-02", "expense", "1", "", "500", "food", "false"},
		{"2025-02", "expense", "2", "Milk", "300", "nope", "false"},
		{"2025-02", "limit", "", "", "1000", "unregistered", ""},
		{"2025-02", "expense", "3", "Bread", "250", "food", "true"},
	}
	decoded := decodeRows(values)
	record := decoded["2025-02"]
	if record == nil {
		t.Fatal("valid rows must survive")
	}
	if record.Income.Cents != 0 {
		t.Fatalf("unparsable income must be skipped, got %d", record.Income.Cents)
	}
	if len(record.Expenses) != 2 {
		t.Fatalf("expenses = %+v", record.Expenses)
	}
	if record.Expenses[0].Category != core.CategoryOther {
		t.Fatalf("unknown category must fall back to other, got %q", record.Expenses[0].Category)
	}
	if len(record.Limits) != 0 {
		t.Fatalf("limit for unregistered category must be dropped: %+v", record.Limits)
	}
}

func TestDecodeFloatCells(t *testing.T) {
	values := [][]any{
		{"2025-06", "income", "", "", float64(120000), "", true},
		{"2025-06", "expense", "7", "Gym", float64(5000), "health", false},
	}
	decoded := decodeRows(values)
	record := decoded["2025-06"]
	if record == nil || record.Income.Cents != 120000 || !record.IncomeRecurring {
		t.Fatalf("record = %+v", record)
	}
	if len(record.Expenses) != 1 || record.Expenses[0].Amount.Cents != 5000 {
		t.Fatalf("expenses = %+v", record.Expenses)
	}
}

func TestDecodeDropsEmptyMonths(t *testing.T) {
	values := [][]any{
		{"2025-07", "income", "", "", "0", "", "false"},
	}
	decoded := decodeRows(values)
	if len(decoded) != 0 {
		t.Fatalf("structurally empty month must be dropped: %+v", decoded)
	}
}

func TestEncodeOrdersMonths(t *testing.T) {
	ledger := core.Ledger{
		"2025-03": &core.MonthRecord{Income: core.Money{Cents: 1}},
		"2024-12": &core.MonthRecord{Income: core.Money{Cents: 2}},
	}
	rows := encodeLedger(ledger)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "2024-12" || rows[1][0] != "2025-03" {
		t.Fatalf("months must be emitted in key order: %v", rows)
	}
}
