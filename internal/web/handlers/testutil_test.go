package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/roster"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// fakeMachine records calls and returns the configured errors.
type fakeMachine struct {
	mu        sync.Mutex
	snapshot  session.Snapshot
	thumbnail *capture.Image
	startErr  error
	opErr     error
	started   []session.Mode
	closed    int
	events    chan session.Event
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{
		snapshot: session.Snapshot{Status: session.StatusIdle},
		events:   make(chan session.Event, 8),
	}
}

func (m *fakeMachine) Start(mode session.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, mode)
	m.snapshot = session.Snapshot{SessionID: "s-1", Mode: mode, Status: session.StatusIdle, Pending: session.PendingAcquire}
	return nil
}

func (m *fakeMachine) Capture() error { return m.op(session.StatusProcessing) }
func (m *fakeMachine) Retry() error   { return m.op(session.StatusError) }

func (m *fakeMachine) op(status session.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opErr != nil {
		return m.opErr
	}
	m.snapshot.Status = status
	return nil
}

func (m *fakeMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	m.snapshot = session.Snapshot{Status: session.StatusIdle}
}

func (m *fakeMachine) Snapshot() session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *fakeMachine) Thumbnail() *capture.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thumbnail
}

func (m *fakeMachine) Subscribe() (<-chan session.Event, func()) {
	return m.events, func() {}
}

type fakeRoster struct {
	records    []roster.Record
	refreshErr error
	refreshes  int
	updatedAt  time.Time
}

func (r *fakeRoster) Refresh(ctx context.Context) error {
	r.refreshes++
	return r.refreshErr
}

func (r *fakeRoster) Records() []roster.Record { return r.records }
func (r *fakeRoster) UpdatedAt() time.Time     { return r.updatedAt }

// parseJSONResponse parses JSON response body into target
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
