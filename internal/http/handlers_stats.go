package http

import (
	"net/http"

	"budgetbook/internal/analytics"
	"budgetbook/internal/core"
)

const statsCacheKey = "stats"

type statsResponse struct {
	Totals          analytics.Totals           `json:"totals"`
	BestMonth       *analytics.MonthStanding   `json:"bestMonth"`
	WorstMonth      *analytics.MonthStanding   `json:"worstMonth"`
	Breakdown       []analytics.CategorySlice  `json:"breakdown"`
	TopExpenses     []analytics.MonthExpense   `json:"topExpenses"`
	BudgetScore     float64                    `json:"budgetScore"`
	Trend           *analytics.Trend           `json:"trend"`
	Recommendations []analytics.Recommendation `json:"recommendations"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.statsCache.Get(statsCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snapshot := s.store.Snapshot()
	current := s.store.Current()

	best, worst := analytics.BestAndWorstMonth(snapshot)
	trend := analytics.MonthOverMonthTrend(snapshot, current)
	score := analytics.BudgetScore(snapshot)

	resp := statsResponse{
		Totals:          analytics.TotalsAcrossMonths(snapshot),
		BestMonth:       best,
		WorstMonth:      worst,
		Breakdown:       analytics.CategoryBreakdown(snapshot),
		TopExpenses:     analytics.TopExpenses(snapshot, 5),
		BudgetScore:     score,
		Trend:           trend,
		Recommendations: analytics.Recommendations(snapshot, trend, score),
	}

	s.statsCache.Set(statsCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories())
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monthView(r, s.store.Current()))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Direction int `json:"direction"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Direction != 1 && body.Direction != -1 {
		writeError(w, http.StatusBadRequest, "direction must be 1 or -1")
		return
	}
	key := s.store.Navigate(r.Context(), body.Direction)
	// Navigation can propagate recurring entries into the new month.
	s.statsCache.Clear()
	writeJSON(w, http.StatusOK, s.monthView(r, key))
}
