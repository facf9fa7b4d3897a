package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/attendance-kiosk/internal/journal"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// HistoryHandler lists recently ended sessions.
type HistoryHandler struct {
	journal journal.Store
}

func NewHistoryHandler(j journal.Store) *HistoryHandler {
	return &HistoryHandler{journal: j}
}

// HistoryResponse is a page of outcomes with totals.
type HistoryResponse struct {
	Outcomes []session.Outcome `json:"outcomes"`
	Summary  journal.Summary   `json:"summary"`
}

// List handles GET /api/v1/history?limit=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := journal.DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	outcomes, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if outcomes == nil {
		outcomes = []session.Outcome{}
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Outcomes: outcomes, Summary: journal.Summarize(outcomes)})
}
