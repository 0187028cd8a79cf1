// Package file is the JSON file persistence gateway. It also owns the
// one-time migration from the legacy single-month document format.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"budgetbook/internal/core"
)

const (
	ledgerFile = "ledger.json"
	legacyFile = "budget.json"
)

// Store persists the ledger as a single JSON document in a directory.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a Store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{path: dir}
}

// ledgerDocument is the on-disk shape, versioned for future migrations.
type ledgerDocument struct {
	Version int                              `json:"version"`
	Months  map[string]*core.MonthRecord     `json:"months"`
}

// legacyDocument is the pre-ledger format: one implicit month, amounts as
// plain decimal numbers, no month keys.
type legacyDocument struct {
	Income          float64         `json:"income"`
	IncomeRecurring bool            `json:"incomeRecurring"`
	Expenses        []legacyExpense `json:"expenses"`
}

type legacyExpense struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Recurring bool    `json:"isRecurring"`
}

// Load reads the saved ledger. When no ledger document exists it attempts the
// one-time legacy migration; a missing or malformed legacy document yields an
// empty ledger, never an aborted startup.
func (s *Store) Load(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.path, ledgerFile))
	switch {
	case err == nil:
		var doc ledgerDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode ledger document: %w", err)
		}
		ledger := make(core.Ledger, len(doc.Months))
		for key, record := range doc.Months {
			parsed, err := core.ParseMonthKey(key)
			if err != nil {
				slog.WarnContext(ctx, "Skipping record with invalid month key", "key", key)
				continue
			}
			ledger[parsed] = record
		}
		return ledger, nil
	case errors.Is(err, fs.ErrNotExist):
		return s.migrateLegacy(ctx)
	default:
		return nil, fmt.Errorf("read ledger document: %w", err)
	}
}

// migrateLegacy wraps a legacy single-month document into the current
// calendar month and clears the legacy file. Called with s.mu held.
func (s *Store) migrateLegacy(ctx context.Context) (core.Ledger, error) {
	legacyPath := filepath.Join(s.path, legacyFile)
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		// No legacy data: genuinely empty store.
		return make(core.Ledger), nil
	}

	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.ErrorContext(ctx, "Malformed legacy document, starting empty", "error", err)
		return make(core.Ledger), nil
	}

	record := &core.MonthRecord{
		Income:          unitsToMoney(doc.Income),
		IncomeRecurring: doc.IncomeRecurring,
	}
	for _, e := range doc.Expenses {
		amount := unitsToMoney(e.Amount)
		if e.Name == "" || !amount.IsPositive() {
			continue
		}
		category := e.Category
		if !core.ValidCategory(category) {
			category = "other"
		}
		record.Expenses = append(record.Expenses, core.Expense{
			ID:        core.NewExpenseID(),
			Name:      e.Name,
			Amount:    amount,
			Category:  category,
			Recurring: e.Recurring,
		})
	}

	ledger := make(core.Ledger)
	key := core.CurrentMonthKey()
	if record.HasData() {
		ledger[key] = record
	}

	if err := s.writeLocked(ledger); err != nil {
		return nil, fmt.Errorf("write migrated ledger: %w", err)
	}
	if err := os.Remove(legacyPath); err != nil {
		slog.WarnContext(ctx, "Failed to clear legacy document", "error", err, "path", legacyPath)
	}
	slog.InfoContext(ctx, "Migrated legacy budget into month ledger",
		"month", key, "expenses", len(record.Expenses))
	return ledger, nil
}

// Save persists the entire mapping atomically (write to a temp file, then
// rename into place).
func (s *Store) Save(_ context.Context, ledger core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ledger)
}

func (s *Store) writeLocked(ledger core.Ledger) error {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	doc := ledgerDocument{Version: 1, Months: make(map[string]*core.MonthRecord, len(ledger))}
	for key, record := range ledger {
		doc.Months[string(key)] = record
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger document: %w", err)
	}

	target := filepath.Join(s.path, ledgerFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace ledger document: %w", err)
	}
	return nil
}

// unitsToMoney converts a legacy decimal amount to cents with half-up
// rounding. Negative or non-finite values collapse to zero.
func unitsToMoney(units float64) core.Money {
	if units <= 0 || math.IsNaN(units) || math.IsInf(units, 0) {
		return core.Money{}
	}
	return core.Money{Cents: int64(units*100 + 0.5)}
}
