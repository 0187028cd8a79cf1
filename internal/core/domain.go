package core

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidMonthKey = errors.New("invalid month key")
)

// Expense is a single categorized outgoing. IDs are creation-timestamp based
// and unique within the process; recurring expenses are re-created with fresh
// IDs when propagated into a new month.
type Expense struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Amount    Money  `json:"amount"`
	Category  string `json:"category"`
	Recurring bool   `json:"recurring"`
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewExpenseID generates a unique, monotonically increasing expense id.
func NewExpenseID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixNano()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidCategory(e.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// MonthRecord holds everything the ledger knows about one month. The expense
// slice is in insertion order; order is display-only and not significant for
// any aggregate.
type MonthRecord struct {
	Income          Money            `json:"income"`
	IncomeRecurring bool             `json:"incomeRecurring"`
	Expenses        []Expense        `json:"expenses"`
	Limits          map[string]Money `json:"limits,omitempty"`
}

// TotalExpenses sums every expense amount in the record.
func (r *MonthRecord) TotalExpenses() Money {
	var total Money
	for _, e := range r.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Remaining is income minus total expenses, exact to the cent. It may be
// negative.
func (r *MonthRecord) Remaining() Money {
	return r.Income.Sub(r.TotalExpenses())
}

// SpentByCategory sums expense amounts per category id.
func (r *MonthRecord) SpentByCategory() map[string]Money {
	out := make(map[string]Money)
	for _, e := range r.Expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// HasData reports whether the record carries any user data. Empty records are
// never persisted and never block recurring propagation.
func (r *MonthRecord) HasData() bool {
	return r.Income.IsPositive() || len(r.Expenses) > 0
}

// SetLimit stores a per-category limit. A non-positive limit removes the
// entry; a zero-or-negative limit is never stored.
func (r *MonthRecord) SetLimit(categoryID string, limit Money) {
	if !limit.IsPositive() {
		delete(r.Limits, categoryID)
		return
	}
	if r.Limits == nil {
		r.Limits = make(map[string]Money)
	}
	r.Limits[categoryID] = limit
}

// Clone returns a deep copy of the record.
func (r *MonthRecord) Clone() *MonthRecord {
	out := &MonthRecord{
		Income:          r.Income,
		IncomeRecurring: r.IncomeRecurring,
	}
	if len(r.Expenses) > 0 {
		out.Expenses = make([]Expense, len(r.Expenses))
		copy(out.Expenses, r.Expenses)
	}
	if len(r.Limits) > 0 {
		out.Limits = make(map[string]Money, len(r.Limits))
		for k, v := range r.Limits {
			out.Limits[k] = v
		}
	}
	return out
}

// Ledger maps month keys to their records. Keys present in the map are
// exactly the months the user has ever written data for.
type Ledger map[MonthKey]*MonthRecord

// SortedKeys returns the known month keys in chronological order.
func (l Ledger) SortedKeys() []MonthKey {
	keys := make([]MonthKey, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, r := range l {
		out[k] = r.Clone()
	}
	return out
}
