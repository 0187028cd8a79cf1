package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError maps domain sentinels to API statuses. Validation
// rejections are 422 so the client can keep the typed-in value on screen.
func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCategory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// monthKeyFromPath parses the {key} path segment.
func monthKeyFromPath(r *http.Request) (core.MonthKey, bool) {
	key, err := core.ParseMonthKey(r.PathValue("key"))
	if err != nil {
		return "", false
	}
	return key, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
