package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/roster"
)

// Roster is the cached attendance list.
type Roster interface {
	Refresh(ctx context.Context) error
	Records() []roster.Record
	UpdatedAt() time.Time
}

// AttendanceHandler serves the roster.
type AttendanceHandler struct {
	roster Roster
}

func NewAttendanceHandler(r Roster) *AttendanceHandler {
	return &AttendanceHandler{roster: r}
}

// AttendanceResponse is the filtered and sorted roster.
type AttendanceResponse struct {
	Records   []roster.Record `json:"records"`
	Total     int             `json:"total"`
	Present   int             `json:"present"`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

// List handles GET /api/v1/attendance?q=&sort=&desc=.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	desc, _ := strconv.ParseBool(query.Get("desc"))

	all := h.roster.Records()
	records := roster.Sort(roster.Search(all, query.Get("q")), query.Get("sort"), desc)
	if records == nil {
		records = []roster.Record{}
	}

	present := 0
	for _, rec := range all {
		if rec.Status == roster.Present {
			present++
		}
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{
		Records:   records,
		Total:     len(all),
		Present:   present,
		UpdatedAt: h.roster.UpdatedAt(),
	})
}

// Refresh handles POST /api/v1/attendance/refresh.
func (h *AttendanceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.Refresh(r.Context()); err != nil {
		slog.Warn("roster refresh failed", "error", err)
		var fetchErr *recognition.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Message != "" {
			respondError(w, http.StatusBadGateway, fetchErr.Message)
			return
		}
		respondError(w, http.StatusBadGateway, "failed to fetch attendance")
		return
	}
	h.List(w, r)
}
