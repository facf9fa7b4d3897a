package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// SessionMachine is the part of *session.Machine the API drives.
type SessionMachine interface {
	Start(mode session.Mode) error
	Capture() error
	Retry() error
	Close()
	Snapshot() session.Snapshot
	Thumbnail() *capture.Image
	Subscribe() (<-chan session.Event, func())
}

// SessionHandler exposes the capture session over HTTP.
type SessionHandler struct {
	machine   SessionMachine
	keepAlive time.Duration
}

func NewSessionHandler(machine SessionMachine) *SessionHandler {
	return &SessionHandler{
		machine:   machine,
		keepAlive: constants.SSEKeepAliveSeconds * time.Second,
	}
}

// StartRequest is the body of POST /session.
type StartRequest struct {
	Mode string `json:"mode"`
}

// Start handles POST /api/v1/session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxDraftBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.machine.Start(mode); err != nil {
		respondRefused(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.machine.Snapshot())
}

// Get handles GET /api/v1/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.machine.Snapshot())
}

// Capture handles POST /api/v1/session/capture.
func (h *SessionHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Capture(); err != nil {
		respondRefused(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.machine.Snapshot())
}

// Retry handles POST /api/v1/session/retry.
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Retry(); err != nil {
		respondRefused(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.machine.Snapshot())
}

// Close handles DELETE /api/v1/session. Closing an idle kiosk succeeds.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.machine.Close()
	respondJSON(w, http.StatusOK, h.machine.Snapshot())
}

// Events handles GET /api/v1/session/events. The stream opens with the
// current state and then carries every transition until the client leaves.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := h.machine.Subscribe()
	defer unsubscribe()

	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	sendSSEEvent(w, flusher, "status", h.machine.Snapshot())

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			sendSSEComment(w, flusher)
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event.Snapshot)
		}
	}
}

// Thumbnail handles GET /api/v1/thumbnail: the still of the last successful
// registration.
func (h *SessionHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	img := h.machine.Thumbnail()
	if img == nil {
		respondError(w, http.StatusNotFound, "no registration thumbnail yet")
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		slog.Debug("writing thumbnail", "error", err)
	}
}

// respondRefused maps a refused session event to a status code.
func respondRefused(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrIncompleteDraft):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("session operation failed", "error", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
