package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sproutplan/sproutplan-api/internal/request"
	"github.com/sproutplan/sproutplan-api/internal/services/stats"
)

// StatsHandler serves derived task statistics. It holds no state
// beyond the aggregator; every response reflects the store at request
// time.
type StatsHandler struct {
	aggregator *stats.Aggregator
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(aggregator *stats.Aggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// RegisterRoutes registers statistics routes on the given router
// The router should already have the /tasks prefix
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/weekly-progress", h.GetWeeklyProgress).Methods("GET")
}

// GetStats returns completion stats for one day (default today)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	progress, err := h.aggregator.Daily(r.Context(), user.ID, r.URL.Query().Get("date"))
	if err != nil {
		respondDomainError(w, err, "Failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// GetHistory returns one stats entry per day for the last N days
// (default 7), newest first
func (h *StatsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be an integer")
			return
		}
		days = parsed
	}

	history, err := h.aggregator.History(r.Context(), user.ID, days)
	if err != nil {
		respondDomainError(w, err, "Failed to compute history")
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetWeeklyProgress returns per-day and week-level stats for the
// Monday-to-Sunday week containing the given date (default today)
func (h *StatsHandler) GetWeeklyProgress(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	week, err := h.aggregator.Weekly(r.Context(), user.ID, r.URL.Query().Get("date"))
	if err != nil {
		respondDomainError(w, err, "Failed to compute weekly progress")
		return
	}

	respondJSON(w, http.StatusOK, week)
}
