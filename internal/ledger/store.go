// Package ledger owns the month-keyed budget ledger: all CRUD on income,
// expenses and category limits, the current-month pointer, and the
// recurring-item propagation across month boundaries.
package ledger

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"budgetbook/internal/core"
	"budgetbook/internal/persist"
)

// SyncPublisher receives a notification after a month has been mutated so a
// remote sync pipeline can pick it up. Publishing is fire-and-forget.
type SyncPublisher interface {
	PublishMonthSync(ctx context.Context, key core.MonthKey, version int64) error
}

// Store is the single owner of the in-memory ledger. All mutations go through
// it; reads never create months as a side effect. Every mutation is written
// through to the persistence gateway, with failures logged rather than
// surfaced, so the ledger stays usable when storage is unavailable.
type Store struct {
	mu         sync.Mutex
	ledger     core.Ledger
	current    core.MonthKey
	propagated map[core.MonthKey]struct{}
	version    int64

	gateway   persist.Gateway
	publisher SyncPublisher
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher attaches a sync publisher notified after each mutation.
func WithPublisher(p SyncPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithCurrent overrides the initial current-month pointer. Mostly for tests;
// the default is the present calendar month.
func WithCurrent(key core.MonthKey) Option {
	return func(s *Store) { s.current = key }
}

// NewStore creates an empty store writing through to gateway.
func NewStore(gateway persist.Gateway, opts ...Option) *Store {
	s := &Store{
		ledger:     make(core.Ledger),
		current:    core.CurrentMonthKey(),
		propagated: make(map[core.MonthKey]struct{}),
		gateway:    gateway,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory ledger with the gateway's saved state. A load
// failure is logged and treated as "no data"; the store stays usable.
func (s *Store) Load(ctx context.Context) {
	if s.gateway == nil {
		return
	}
	loaded, err := s.gateway.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger load failed, starting empty", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded == nil {
		loaded = make(core.Ledger)
	}
	s.ledger = loaded
	slog.InfoContext(ctx, "Ledger loaded", "months", len(loaded))
}

// Month returns the stored record for key, or a structurally default empty
// record. Reading never creates the key; the returned record is a copy.
func (s *Store) Month(key core.MonthKey) *core.MonthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ledger[key]; ok {
		return r.Clone()
	}
	return &core.MonthRecord{}
}

// Snapshot returns a deep copy of the whole ledger for pure reads.
func (s *Store) Snapshot() core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}

// Current returns the current-month pointer.
func (s *Store) Current() core.MonthKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent moves the current-month pointer to key and runs recurring
// propagation from the immediately preceding calendar month. The pointer may
// reference a month not yet present in the ledger.
func (s *Store) SetCurrent(ctx context.Context, key core.MonthKey) {
	s.mu.Lock()
	s.current = key
	s.mu.Unlock()
	s.PropagateRecurring(ctx, key.Prev(), key)
}

// Navigate moves the current-month pointer by delta calendar months and
// returns the new key. Propagation runs synchronously before returning, so a
// caller reading the month immediately afterwards sees the copied items.
func (s *Store) Navigate(ctx context.Context, delta int) core.MonthKey {
	s.mu.Lock()
	key := s.current
	for ; delta > 0; delta-- {
		key = key.Next()
	}
	for ; delta < 0; delta++ {
		key = key.Prev()
	}
	s.current = key
	s.mu.Unlock()
	s.PropagateRecurring(ctx, key.Prev(), key)
	return key
}

// SetIncome sets a month's income from a raw string. Non-numeric input is
// coerced to zero, never rejected. A nil recurring pointer preserves the
// month's existing recurring flag.
func (s *Store) SetIncome(ctx context.Context, key core.MonthKey, amount string, recurring *bool) {
	income := core.ParseAmountOrZero(amount)

	s.mu.Lock()
	r, ok := s.ledger[key]
	if !ok {
		// Nothing to record: zero income with no flag change is the default
		// state, and defaults are never persisted.
		if !income.IsPositive() && (recurring == nil || !*recurring) {
			s.mu.Unlock()
			return
		}
		r = &core.MonthRecord{}
		s.ledger[key] = r
	}
	r.Income = income
	if recurring != nil {
		r.IncomeRecurring = *recurring
	}
	s.mu.Unlock()

	s.persist(ctx, key)
}

// AddExpense validates and appends a new expense with a freshly generated id.
// Invalid input (empty name, non-positive amount, unknown category) is a
// validation rejection: the ledger is untouched and a sentinel error is
// returned for the caller to report.
func (s *Store) AddExpense(ctx context.Context, key core.MonthKey, name, amount, category string, recurring bool) (core.Expense, error) {
	parsed, err := core.ParseAmount(amount)
	if err != nil || !parsed.IsPositive() {
		return core.Expense{}, core.ErrInvalidAmount
	}
	e := core.Expense{
		ID:        core.NewExpenseID(),
		Name:      strings.TrimSpace(name),
		Amount:    parsed,
		Category:  category,
		Recurring: recurring,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	r, ok := s.ledger[key]
	if !ok {
		r = &core.MonthRecord{}
		s.ledger[key] = r
	}
	r.Expenses = append(r.Expenses, e)
	s.mu.Unlock()

	s.persist(ctx, key)
	return e, nil
}

// ExpensePatch carries the optional fields of an expense edit. Nil fields
// keep the stored value.
type ExpensePatch struct {
	Name      *string
	Amount    *string
	Category  *string
	Recurring *bool
}

// UpdateExpense applies patch to the expense with the given id, preserving
// the id. A patch that would leave the expense invalid is rejected without
// touching the stored record. An unknown id is reported as not found.
func (s *Store) UpdateExpense(ctx context.Context, key core.MonthKey, id string, patch ExpensePatch) error {
	s.mu.Lock()
	r, ok := s.ledger[key]
	if !ok {
		s.mu.Unlock()
		return ErrExpenseNotFound
	}
	idx := -1
	for i := range r.Expenses {
		if r.Expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrExpenseNotFound
	}

	updated := r.Expenses[idx]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Amount != nil {
		parsed, err := core.ParseAmount(*patch.Amount)
		if err != nil || !parsed.IsPositive() {
			s.mu.Unlock()
			return core.ErrInvalidAmount
		}
		updated.Amount = parsed
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Recurring != nil {
		updated.Recurring = *patch.Recurring
	}
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	r.Expenses[idx] = updated
	s.mu.Unlock()

	s.persist(ctx, key)
	return nil
}

// DeleteExpense removes the expense with the given id. Deleting an absent id
// is a no-op, so the operation is idempotent.
func (s *Store) DeleteExpense(ctx context.Context, key core.MonthKey, id string) {
	s.mu.Lock()
	r, ok := s.ledger[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	removed := false
	for i := range r.Expenses {
		if r.Expenses[i].ID == id {
			r.Expenses = append(r.Expenses[:i], r.Expenses[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.persist(ctx, key)
	}
}

// DeleteMonth removes the whole record for key.
func (s *Store) DeleteMonth(ctx context.Context, key core.MonthKey) {
	s.mu.Lock()
	_, ok := s.ledger[key]
	delete(s.ledger, key)
	s.mu.Unlock()

	if ok {
		s.persist(ctx, key)
	}
}

// SetCategoryLimit stores a per-category limit from a raw string. A limit
// that does not parse to a positive amount removes any existing entry.
func (s *Store) SetCategoryLimit(ctx context.Context, key core.MonthKey, categoryID, limit string) {
	parsed := core.ParseAmountOrZero(limit)

	s.mu.Lock()
	r, ok := s.ledger[key]
	if !ok {
		if !parsed.IsPositive() {
			// Removing a limit from an absent month stores nothing.
			s.mu.Unlock()
			return
		}
		r = &core.MonthRecord{}
		s.ledger[key] = r
	}
	r.SetLimit(categoryID, parsed)
	s.mu.Unlock()

	s.persist(ctx, key)
}

// PropagateRecurring copies from's recurring income, recurring expenses and
// category limits into to. It reports whether anything was copied.
//
// Two guards make it safe to trigger repeatedly: it never runs when to
// already holds any expense or positive income, and it runs at most once per
// destination month for the lifetime of the process. The second guard is a
// seen-set rather than an emptiness re-check, because a month can become
// empty again through deletion without becoming a propagation target again.
func (s *Store) PropagateRecurring(ctx context.Context, from, to core.MonthKey) bool {
	s.mu.Lock()
	if _, checked := s.propagated[to]; checked {
		s.mu.Unlock()
		return false
	}
	s.propagated[to] = struct{}{}

	existing := s.ledger[to]
	if existing != nil && existing.HasData() {
		s.mu.Unlock()
		return false
	}
	src, ok := s.ledger[from]
	if !ok {
		s.mu.Unlock()
		return false
	}

	copied := false
	dst := existing
	if dst == nil {
		dst = &core.MonthRecord{}
	}
	if src.IncomeRecurring && src.Income.IsPositive() {
		dst.Income = src.Income
		dst.IncomeRecurring = true
		copied = true
	}
	for _, e := range src.Expenses {
		if !e.Recurring {
			continue
		}
		// Fresh id: the copy is a new expense, decoupled from the original.
		clone := e
		clone.ID = core.NewExpenseID()
		dst.Expenses = append(dst.Expenses, clone)
		copied = true
	}
	for cat, limit := range src.Limits {
		// Limits the destination already carries win over the copy.
		if _, has := dst.Limits[cat]; has {
			continue
		}
		dst.SetLimit(cat, limit)
		copied = true
	}

	if !copied {
		s.mu.Unlock()
		return false
	}
	s.ledger[to] = dst
	s.mu.Unlock()

	slog.InfoContext(ctx, "Recurring items propagated",
		"from", from, "to", to,
		"expenses", len(dst.Expenses),
		"income_cents", dst.Income.Cents)
	s.persist(ctx, to)
	return true
}

// persist writes the full ledger through the gateway and notifies the sync
// publisher. Both are best-effort: failures are logged and the in-memory
// state remains the source of truth.
func (s *Store) persist(ctx context.Context, changed core.MonthKey) {
	s.mu.Lock()
	s.version++
	version := s.version
	snapshot := s.ledger.Clone()
	s.mu.Unlock()

	if s.gateway != nil {
		if err := s.gateway.Save(ctx, snapshot); err != nil {
			slog.ErrorContext(ctx, "Ledger save failed, keeping in-memory state",
				"error", err, "month", changed)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMonthSync(ctx, changed, version); err != nil {
			slog.ErrorContext(ctx, "Month sync publish failed",
				"error", err, "month", changed)
		}
	}
}
