package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// DraftStore is the registration form shared with the session machine.
type DraftStore interface {
	Draft() session.RegistrationDraft
	Set(d session.RegistrationDraft)
	Clear()
}

// DraftHandler edits the registration form.
type DraftHandler struct {
	drafts DraftStore
}

func NewDraftHandler(drafts DraftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// DraftResponse is the form plus whether registration can start.
type DraftResponse struct {
	session.RegistrationDraft
	Complete bool `json:"complete"`
}

func (h *DraftHandler) response() DraftResponse {
	d := h.drafts.Draft()
	return DraftResponse{RegistrationDraft: d, Complete: d.Complete()}
}

// Get handles GET /api/v1/draft.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.response())
}

// Put handles PUT /api/v1/draft. Both fields are replaced.
func (h *DraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	var d session.RegistrationDraft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxDraftBodyBytes)).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.drafts.Set(d)
	respondJSON(w, http.StatusOK, h.response())
}

// Delete handles DELETE /api/v1/draft.
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.drafts.Clear()
	respondJSON(w, http.StatusOK, h.response())
}
