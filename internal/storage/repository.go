// Package storage is the SQLite persistence gateway. Months carry a
// sync_status column so the remote sync worker can pick up pending changes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for the months table.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements persist.Gateway. It reads the whole mapping: months in key
// order, expenses in stored position order, limits per month.
func (r *Repository) Load(ctx context.Context) (core.Ledger, error) {
	ledger := make(core.Ledger)

	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key, income_cents, income_recurring FROM months ORDER BY month_key`)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var incomeCents int64
		var incomeRecurring bool
		if err := rows.Scan(&key, &incomeCents, &incomeRecurring); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		parsed, err := core.ParseMonthKey(key)
		if err != nil {
			slog.WarnContext(ctx, "Skipping row with invalid month key", "key", key)
			continue
		}
		ledger[parsed] = &core.MonthRecord{
			Income:          core.Money{Cents: incomeCents},
			IncomeRecurring: incomeRecurring,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate months: %w", err)
	}

	if err := r.loadExpenses(ctx, ledger); err != nil {
		return nil, err
	}
	if err := r.loadLimits(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (r *Repository) loadExpenses(ctx context.Context, ledger core.Ledger) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key, id, name, amount_cents, category, is_recurring
		 FROM expenses ORDER BY month_key, position`)
	if err != nil {
		return fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, id, name, category string
		var amountCents int64
		var recurring bool
		if err := rows.Scan(&key, &id, &name, &amountCents, &category, &recurring); err != nil {
			return fmt.Errorf("scan expense: %w", err)
		}
		record, ok := ledger[core.MonthKey(key)]
		if !ok {
			continue
		}
		record.Expenses = append(record.Expenses, core.Expense{
			ID:        id,
			Name:      name,
			Amount:    core.Money{Cents: amountCents},
			Category:  category,
			Recurring: recurring,
		})
	}
	return rows.Err()
}

func (r *Repository) loadLimits(ctx context.Context, ledger core.Ledger) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key, category, limit_cents FROM category_limits`)
	if err != nil {
		return fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, category string
		var limitCents int64
		if err := rows.Scan(&key, &category, &limitCents); err != nil {
			return fmt.Errorf("scan limit: %w", err)
		}
		record, ok := ledger[core.MonthKey(key)]
		if !ok {
			continue
		}
		record.SetLimit(category, core.Money{Cents: limitCents})
	}
	return rows.Err()
}

// Save implements persist.Gateway. The whole mapping is rewritten in one
// transaction and every month is marked sync-pending for the remote worker.
func (r *Repository) Save(ctx context.Context, ledger core.Ledger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"category_limits", "expenses", "months"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, key := range ledger.SortedKeys() {
		record := ledger[key]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO months (month_key, income_cents, income_recurring, sync_status, updated_at)
			 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			string(key), record.Income.Cents, record.IncomeRecurring, SyncPending); err != nil {
			return fmt.Errorf("insert month %s: %w", key, err)
		}
		for pos, e := range record.Expenses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO expenses (id, month_key, name, amount_cents, category, is_recurring, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.ID, string(key), e.Name, e.Amount.Cents, e.Category, e.Recurring, pos); err != nil {
				return fmt.Errorf("insert expense %s/%s: %w", key, e.ID, err)
			}
		}
		for category, limit := range record.Limits {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_limits (month_key, category, limit_cents) VALUES (?, ?, ?)`,
				string(key), category, limit.Cents); err != nil {
				return fmt.Errorf("insert limit %s/%s: %w", key, category, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

// GetMonth returns one month's record, or nil when the month is unknown.
func (r *Repository) GetMonth(ctx context.Context, key core.MonthKey) (*core.MonthRecord, error) {
	var incomeCents int64
	var incomeRecurring bool
	err := r.db.QueryRowContext(ctx,
		`SELECT income_cents, income_recurring FROM months WHERE month_key = ?`,
		string(key)).Scan(&incomeCents, &incomeRecurring)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query month %s: %w", key, err)
	}

	single := core.Ledger{key: {
		Income:          core.Money{Cents: incomeCents},
		IncomeRecurring: incomeRecurring,
	}}
	if err := r.loadExpenses(ctx, single); err != nil {
		return nil, err
	}
	if err := r.loadLimits(ctx, single); err != nil {
		return nil, err
	}
	return single[key], nil
}

// PendingSyncMonths returns months waiting for remote sync, oldest first.
func (r *Repository) PendingSyncMonths(ctx context.Context, limit int) ([]core.MonthKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key FROM months WHERE sync_status = ? ORDER BY month_key LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync months: %w", err)
	}
	defer rows.Close()
	var keys []core.MonthKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan pending month: %w", err)
		}
		keys = append(keys, core.MonthKey(key))
	}
	return keys, rows.Err()
}

// MarkMonthSynced records a successful remote sync.
func (r *Repository) MarkMonthSynced(ctx context.Context, key core.MonthKey) error {
	if err := r.setSyncStatus(ctx, key, SyncDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Month marked as synced", "month", key)
	return nil
}

// MarkMonthSyncError records a failed remote sync so the periodic re-drive
// does not retry it blindly on every tick.
func (r *Repository) MarkMonthSyncError(ctx context.Context, key core.MonthKey) error {
	if err := r.setSyncStatus(ctx, key, SyncError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Month marked with sync error", "month", key)
	return nil
}

func (r *Repository) setSyncStatus(ctx context.Context, key core.MonthKey, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE months SET sync_status = ? WHERE month_key = ?`, status, string(key))
	if err != nil {
		return fmt.Errorf("set sync status %s for %s: %w", status, key, err)
	}
	return nil
}
