package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

func TestDraftHandler_PutGetDelete(t *testing.T) {
	drafts := &session.MemoryDraft{}
	handler := NewDraftHandler(drafts)

	req := httptest.NewRequest("PUT", "/api/v1/draft", strings.NewReader(`{"name":" Jane Doe ","roll_number":"42"}`))
	recorder := httptest.NewRecorder()
	handler.Put(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp DraftResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Name != "Jane Doe" || resp.RollNumber != "42" || !resp.Complete {
		t.Errorf("unexpected draft: %+v", resp)
	}

	recorder = httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/draft", nil))
	parseJSONResponse(t, recorder, &resp)
	if resp.Name != "Jane Doe" {
		t.Errorf("expected stored draft, got %+v", resp)
	}

	recorder = httptest.NewRecorder()
	handler.Delete(recorder, httptest.NewRequest("DELETE", "/api/v1/draft", nil))
	parseJSONResponse(t, recorder, &resp)
	if resp.Complete || drafts.Draft().Name != "" {
		t.Errorf("expected draft cleared, got %+v", resp)
	}
}

func TestDraftHandler_Put_Incomplete(t *testing.T) {
	handler := NewDraftHandler(&session.MemoryDraft{})

	req := httptest.NewRequest("PUT", "/api/v1/draft", strings.NewReader(`{"name":"Jane Doe"}`))
	recorder := httptest.NewRecorder()
	handler.Put(recorder, req)

	var resp DraftResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Complete {
		t.Error("draft without roll number must not be complete")
	}
}

func TestDraftHandler_Put_TooLarge(t *testing.T) {
	handler := NewDraftHandler(&session.MemoryDraft{})

	body := `{"name":"` + strings.Repeat("a", 8<<10) + `","roll_number":"1"}`
	recorder := httptest.NewRecorder()
	handler.Put(recorder, httptest.NewRequest("PUT", "/api/v1/draft", strings.NewReader(body)))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}
