package google

import (
	"fmt"
	"strconv"
	"strings"

	"budgetbook/internal/core"
)

// Row kinds in column B. Each ledger entry becomes one flat row:
//
//	Month | Kind | ID | Name | Cents | Category | Recurring
const (
	rowIncome  = "income"
	rowExpense = "expense"
	rowLimit   = "limit"
)

func encodeLedger(ledger core.Ledger) [][]any {
	var rows [][]any
	for _, key := range ledger.SortedKeys() {
		record := ledger[key]
		rows = append(rows, []any{
			string(key), rowIncome, "", "", record.Income.Cents, "", record.IncomeRecurring,
		})
		for _, e := range record.Expenses {
			rows = append(rows, []any{
				string(key), rowExpense, e.ID, e.Name, e.Amount.Cents, e.Category, e.Recurring,
			})
		}
		for _, category := range core.Categories() {
			limit, ok := record.Limits[category.ID]
			if !ok {
				continue
			}
			rows = append(rows, []any{
				string(key), rowLimit, "", "", limit.Cents, category.ID, false,
			})
		}
	}
	return rows
}

// decodeRows is lenient: rows with an invalid month key, unknown kind or
// unparsable amount are skipped rather than failing the whole load.
func decodeRows(values [][]any) core.Ledger {
	ledger := make(core.Ledger)
	for _, raw := range values {
		row := toStrings(raw)
		if len(row) < 5 {
			continue
		}
		key, err := core.ParseMonthKey(row[0])
		if err != nil {
			continue
		}
		cents, err := strconv.ParseInt(strings.TrimSpace(row[4]), 10, 64)
		if err != nil || cents < 0 {
			continue
		}
		record, ok := ledger[key]
		if !ok {
			record = &core.MonthRecord{}
			ledger[key] = record
		}
		switch row[1] {
		case rowIncome:
			record.Income = core.Money{Cents: cents}
			record.IncomeRecurring = parseBool(cell(row, 6))
		case rowExpense:
			e := core.Expense{
				ID:        cell(row, 2),
				Name:      cell(row, 3),
				Amount:    core.Money{Cents: cents},
				Category:  cell(row, 5),
				Recurring: parseBool(cell(row, 6)),
			}
			if !core.ValidCategory(e.Category) {
				e.Category = core.CategoryOther
			}
			if e.Name == "" || !e.Amount.IsPositive() {
				continue
			}
			record.Expenses = append(record.Expenses, e)
		case rowLimit:
			category := cell(row, 5)
			if !core.ValidCategory(category) {
				continue
			}
			record.SetLimit(category, core.Money{Cents: cents})
		}
	}
	// A decoded record that carries nothing is dropped.
	for key, record := range ledger {
		if !record.HasData() && len(record.Limits) == 0 {
			delete(ledger, key)
		}
	}
	return ledger
}

// toStrings normalizes a sheet row. The Sheets API hands numbers back as
// float64 when the range was written RAW.
func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch s := v.(type) {
		case string:
			out[i] = strings.TrimSpace(s)
		case bool:
			out[i] = strconv.FormatBool(s)
		case float64:
			out[i] = strconv.FormatInt(int64(s), 10)
		case int64:
			out[i] = strconv.FormatInt(s, 10)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
