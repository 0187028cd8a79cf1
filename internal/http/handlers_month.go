package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"budgetbook/internal/alerts"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

// monthResponse is the full view of one month, including derived numbers and
// alert statuses.
type monthResponse struct {
	Key             core.MonthKey         `json:"key"`
	Income          core.Money            `json:"income"`
	IncomeRecurring bool                  `json:"incomeRecurring"`
	Expenses        []core.Expense        `json:"expenses"`
	Limits          map[string]core.Money `json:"limits"`
	TotalExpenses   core.Money            `json:"totalExpenses"`
	Remaining       core.Money            `json:"remaining"`
	SpentByCategory map[string]core.Money `json:"spentByCategory"`
	Alerts          []alerts.Status       `json:"alerts"`
}

func (s *Server) monthView(r *http.Request, key core.MonthKey) monthResponse {
	record := s.store.Month(key)
	expenses := record.Expenses
	if expenses == nil {
		expenses = []core.Expense{}
	}
	limits := record.Limits
	if limits == nil {
		limits = map[string]core.Money{}
	}
	statuses := s.evaluator.Evaluate(r.Context(), key, record)
	if statuses == nil {
		statuses = []alerts.Status{}
	}
	return monthResponse{
		Key:             key,
		Income:          record.Income,
		IncomeRecurring: record.IncomeRecurring,
		Expenses:        expenses,
		Limits:          limits,
		TotalExpenses:   record.TotalExpenses(),
		Remaining:       record.Remaining(),
		SpentByCategory: record.SpentByCategory(),
		Alerts:          statuses,
	}
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	writeJSON(w, http.StatusOK, s.monthView(r, key))
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	s.store.DeleteMonth(r.Context(), key)
	s.statsCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	var body struct {
		Amount    string `json:"amount"`
		Recurring *bool  `json:"recurring"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.store.SetIncome(r.Context(), key, body.Amount, body.Recurring)
	s.statsCache.Clear()
	writeJSON(w, http.StatusOK, s.monthView(r, key))
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	var body struct {
		Name      string `json:"name"`
		Amount    string `json:"amount"`
		Category  string `json:"category"`
		Recurring bool   `json:"recurring"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	expense, err := s.store.AddExpense(r.Context(), key, body.Name, body.Amount, body.Category, body.Recurring)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	s.statsCache.Clear()
	writeJSON(w, http.StatusCreated, struct {
		Expense core.Expense  `json:"expense"`
		Month   monthResponse `json:"month"`
	}{expense, s.monthView(r, key)})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	var body struct {
		Name      *string `json:"name"`
		Amount    *string `json:"amount"`
		Category  *string `json:"category"`
		Recurring *bool   `json:"recurring"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	patch := ledger.ExpensePatch{
		Name:      body.Name,
		Amount:    body.Amount,
		Category:  body.Category,
		Recurring: body.Recurring,
	}
	if err := s.store.UpdateExpense(r.Context(), key, r.PathValue("id"), patch); err != nil {
		writeValidationError(w, err)
		return
	}
	s.statsCache.Clear()
	writeJSON(w, http.StatusOK, s.monthView(r, key))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	s.store.DeleteExpense(r.Context(), key, r.PathValue("id"))
	s.statsCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	category := r.PathValue("category")
	if !core.ValidCategory(category) {
		writeError(w, http.StatusUnprocessableEntity, core.ErrUnknownCategory.Error())
		return
	}
	var body struct {
		Limit string `json:"limit"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.store.SetCategoryLimit(r.Context(), key, category, body.Limit)
	s.statsCache.Clear()
	writeJSON(w, http.StatusOK, s.monthView(r, key))
}

func (s *Server) handleExportMonth(w http.ResponseWriter, r *http.Request) {
	key, ok := monthKeyFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month key")
		return
	}
	record := s.store.Month(key)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(key)+".csv"))
	if err := core.WriteMonthCSV(w, record); err != nil {
		// Headers are already out, nothing to send back.
		slog.ErrorContext(r.Context(), "CSV export failed", "month", key, "error", err)
	}
}
