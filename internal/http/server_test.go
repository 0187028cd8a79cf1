package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetbook/internal/alerts"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

type nullGateway struct{}

func (nullGateway) Load(context.Context) (core.Ledger, error) { return core.Ledger{}, nil }
func (nullGateway) Save(context.Context, core.Ledger) error   { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := ledger.NewStore(nullGateway{}, ledger.WithCurrent("2025-06"))
	store.Load(context.Background())
	s := NewServer(":0", store, alerts.NewEvaluator(alerts.LogNotifier{}))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeMonth(t *testing.T, rec *httptest.ResponseRecorder) monthResponse {
	t.Helper()
	var resp monthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode month response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func TestGetUnknownMonthReturnsDefault(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/months/2030-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeMonth(t, rec)
	if resp.Income.Cents != 0 || len(resp.Expenses) != 0 || len(resp.Alerts) != 0 {
		t.Fatalf("default view = %+v", resp)
	}
}

func TestInvalidMonthKey(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/months/March-25", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIncomeAndExpenseFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"2000","recurring":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("income status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMonth(t, rec)
	if resp.Income.Cents != 200000 || !resp.IncomeRecurring {
		t.Fatalf("income view = %+v", resp)
	}

	rec = do(t, s, http.MethodPost, "/api/months/2025-06/expenses", `{"name":"Rent","amount":"850,50","category":"housing"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Expense core.Expense  `json:"expense"`
		Month   monthResponse `json:"month"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Expense.ID == "" || created.Expense.Amount.Cents != 85050 {
		t.Fatalf("created = %+v", created.Expense)
	}
	if created.Month.Remaining.Cents != 200000-85050 {
		t.Fatalf("remaining = %d", created.Month.Remaining.Cents)
	}
}

func TestExpenseValidationErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","amount":"10","category":"food"}`},
		{"bad amount", `{"name":"Milk","amount":"abc","category":"food"}`},
		{"unknown category", `{"name":"Milk","amount":"10","category":"crypto"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/months/2025-06/expenses", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateMissingExpense(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/months/2025-06/expenses/nope", `{"name":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/months/2025-06/expenses", `{"name":"Gym","amount":"50","category":"health","recurring":true}`)
	var created struct {
		Expense core.Expense `json:"expense"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = do(t, s, http.MethodPut, "/api/months/2025-06/expenses/"+created.Expense.ID, `{"amount":"55"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMonth(t, rec)
	if resp.Expenses[0].Amount.Cents != 5500 || resp.Expenses[0].Name != "Gym" {
		t.Fatalf("patched = %+v", resp.Expenses[0])
	}

	rec = do(t, s, http.MethodDelete, "/api/months/2025-06/expenses/"+created.Expense.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	resp = decodeMonth(t, do(t, s, http.MethodGet, "/api/months/2025-06", ""))
	if len(resp.Expenses) != 0 {
		t.Fatalf("expenses after delete = %+v", resp.Expenses)
	}
}

func TestSetLimitAndAlertStatus(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"3000"}`)
	do(t, s, http.MethodPost, "/api/months/2025-06/expenses", `{"name":"Rent","amount":"1200","category":"housing"}`)

	rec := do(t, s, http.MethodPut, "/api/months/2025-06/limits/housing", `{"limit":"1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("limit status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMonth(t, rec)
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %+v", resp.Alerts)
	}
	if !resp.Alerts[0].OverLimit || resp.Alerts[0].PercentOfLimit != 120 {
		t.Fatalf("alert = %+v", resp.Alerts[0])
	}

	rec = do(t, s, http.MethodPut, "/api/months/2025-06/limits/crypto", `{"limit":"100"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown category limit status = %d", rec.Code)
	}
}

func TestNavigatePropagatesRecurring(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"2000","recurring":true}`)
	do(t, s, http.MethodPost, "/api/months/2025-06/expenses", `{"name":"Gym","amount":"50","category":"health","recurring":true}`)

	rec := do(t, s, http.MethodPost, "/api/navigate", `{"direction":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("navigate status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMonth(t, rec)
	if resp.Key != "2025-07" {
		t.Fatalf("key = %s", resp.Key)
	}
	if resp.Income.Cents != 200000 || len(resp.Expenses) != 1 || resp.Expenses[0].Name != "Gym" {
		t.Fatalf("propagated view = %+v", resp)
	}

	rec = do(t, s, http.MethodPost, "/api/navigate", `{"direction":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("direction 0 status = %d", rec.Code)
	}
}

func TestCurrentAndCategories(t *testing.T) {
	s := newTestServer(t)

	resp := decodeMonth(t, do(t, s, http.MethodGet, "/api/current", ""))
	if resp.Key != "2025-06" {
		t.Fatalf("current = %s", resp.Key)
	}

	rec := do(t, s, http.MethodGet, "/api/categories", "")
	var cats []core.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 10 || cats[0].ID != "housing" {
		t.Fatalf("categories = %+v", cats)
	}
}

func TestStatsReflectsMutations(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"1000"}`)

	rec := do(t, s, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Totals.TotalIncome.Cents != 100000 {
		t.Fatalf("stats = %+v", stats.Totals)
	}

	// Mutation must invalidate the cached stats.
	do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"1500"}`)
	rec = do(t, s, http.MethodGet, "/api/stats", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Totals.TotalIncome.Cents != 150000 {
		t.Fatalf("stale stats after mutation: %+v", stats.Totals)
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPut, "/api/months/2025-06/income", `{"amount":"2000"}`)
	do(t, s, http.MethodPost, "/api/months/2025-06/expenses", `{"name":"Milk, eggs","amount":"12.30","category":"food"}`)

	rec := do(t, s, http.MethodGet, "/api/months/2025-06/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"Milk, eggs"`) || !strings.Contains(body, "Total income") {
		t.Fatalf("csv body:\n%s", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("request over the limit must be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("other clients must not be affected")
	}
}

func TestMutatingRequestsRateLimited(t *testing.T) {
	s := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < requestsPerMinute+1; i++ {
		last = do(t, s, http.MethodPut, "/api/months/2025-06/income", fmt.Sprintf(`{"amount":"%d"}`, i))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status after burst = %d", last.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/months/2025-06", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status = %d", rec.Code)
	}
}
