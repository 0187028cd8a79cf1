package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Summary row labels used by the month export.
const (
	exportTotalIncome   = "Total income"
	exportTotalExpenses = "Total expenses"
	exportRemaining     = "Remaining"
)

// WriteMonthCSV renders one month as a flat table with columns Category,
// Name, Amount, followed by summary rows for total income, total expenses and
// the remaining balance. Fields containing the delimiter are quoted by the
// csv writer.
func WriteMonthCSV(w io.Writer, r *MonthRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Category", "Name", "Amount"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range r.Expenses {
		name := e.Category
		if c, ok := CategoryByID(e.Category); ok {
			name = c.Name
		}
		if err := cw.Write([]string{name, e.Name, e.Amount.Format()}); err != nil {
			return fmt.Errorf("write expense row: %w", err)
		}
	}
	summary := [][]string{
		{"", exportTotalIncome, r.Income.Format()},
		{"", exportTotalExpenses, r.TotalExpenses().Format()},
		{"", exportRemaining, r.Remaining().Format()},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMonthCSV parses a table previously produced by WriteMonthCSV back into
// a MonthRecord. Category display names are mapped back to their ids; rows
// with an unknown category keep the raw value so nothing is silently dropped.
// Limits and recurring flags are not part of the export format.
func ReadMonthCSV(rd io.Reader) (*MonthRecord, error) {
	cr := csv.NewReader(rd)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	rec := &MonthRecord{}
	for i, row := range rows {
		if i == 0 || len(row) != 3 {
			continue
		}
		if row[0] == "" {
			amount, err := ParseAmount(strings.TrimPrefix(row[2], "-"))
			if err != nil {
				return nil, fmt.Errorf("summary row %d: %w", i, err)
			}
			if row[1] == exportTotalIncome {
				rec.Income = amount
			}
			continue
		}
		amount, err := ParseAmount(row[2])
		if err != nil {
			return nil, fmt.Errorf("expense row %d: %w", i, err)
		}
		category := row[0]
		for _, c := range categories {
			if c.Name == row[0] {
				category = c.ID
				break
			}
		}
		rec.Expenses = append(rec.Expenses, Expense{
			ID:       NewExpenseID(),
			Name:     row[1],
			Amount:   amount,
			Category: category,
		})
	}
	return rec, nil
}
