package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kozaktomas/attendance-kiosk/internal/roster"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

type fakeMachine struct {
	started  []session.Mode
	captures int
	retries  int
	closes   int
	startErr error
	opErr    error
	snapshot session.Snapshot
	events   chan session.Event
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{snapshot: session.Snapshot{Status: session.StatusIdle}, events: make(chan session.Event, 4)}
}

func (f *fakeMachine) Start(mode session.Mode) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, mode)
	return nil
}
func (f *fakeMachine) Capture() error { f.captures++; return f.opErr }
func (f *fakeMachine) Retry() error   { f.retries++; return f.opErr }
func (f *fakeMachine) Close()         { f.closes++ }

func (f *fakeMachine) Snapshot() session.Snapshot { return f.snapshot }

func (f *fakeMachine) Subscribe() (<-chan session.Event, func()) {
	return f.events, func() {}
}

type fakeRoster struct {
	records   []roster.Record
	refreshes int
	err       error
}

func (r *fakeRoster) Refresh(ctx context.Context) error { r.refreshes++; return r.err }
func (r *fakeRoster) Records() []roster.Record          { return r.records }
func (r *fakeRoster) UpdatedAt() time.Time              { return time.Time{} }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	var model tea.Model = m
	for _, k := range keys {
		model, _ = model.Update(key(k))
	}
	return model.(Model)
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	var model tea.Model = m
	for _, r := range text {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return model.(Model)
}

func newTestModel() (Model, *fakeMachine, *session.MemoryDraft, *fakeRoster) {
	machine := newFakeMachine()
	drafts := &session.MemoryDraft{}
	r := &fakeRoster{}
	return New(machine, drafts, r), machine, drafts, r
}

func TestModel_StartAttendance(t *testing.T) {
	m, machine, _, _ := newTestModel()

	press(t, m, "s")

	if len(machine.started) != 1 || machine.started[0] != session.ModeAttendance {
		t.Errorf("expected attendance start, got %v", machine.started)
	}
}

func TestModel_SessionKeys(t *testing.T) {
	m, machine, _, _ := newTestModel()
	machine.snapshot = session.Snapshot{SessionID: "s-1", Mode: session.ModeAttendance, Status: session.StatusActive}

	m = press(t, m, " ", "r", "x")

	if machine.captures != 1 || machine.retries != 1 || machine.closes != 1 {
		t.Errorf("expected one capture/retry/close, got %d/%d/%d", machine.captures, machine.retries, machine.closes)
	}
}

func TestModel_RefusalShowsReason(t *testing.T) {
	m, machine, _, _ := newTestModel()
	machine.opErr = fmt.Errorf("%w: capture while idle", session.ErrInvalidTransition)

	m = press(t, m, "c")

	if !m.isError || !strings.Contains(m.status, "press s") {
		t.Errorf("expected refusal hint, got %q", m.status)
	}
}

func TestModel_RegistrationForm(t *testing.T) {
	m, machine, drafts, _ := newTestModel()
	machine.startErr = session.ErrIncompleteDraft

	m = press(t, m, "m", "s")
	if !strings.Contains(m.status, "press e") {
		t.Errorf("expected incomplete-draft hint, got %q", m.status)
	}

	m = press(t, m, "e")
	if m.focus != focusForm {
		t.Fatal("expected form focus after e")
	}
	m = typeText(t, m, "Jane Doe")
	m = press(t, m, "enter")
	m = typeText(t, m, "42")
	m = press(t, m, "enter")

	if m.focus != focusKeys {
		t.Error("expected focus back on keys after saving")
	}
	if d := drafts.Draft(); d.Name != "Jane Doe" || d.RollNumber != "42" {
		t.Errorf("unexpected draft: %+v", d)
	}

	// Typing into the form must not trigger session keys
	if machine.captures != 0 {
		t.Error("form input leaked into session keys")
	}
}

func TestModel_ModeLockedDuringSession(t *testing.T) {
	m, machine, _, _ := newTestModel()
	machine.snapshot = session.Snapshot{SessionID: "s-1", Mode: session.ModeAttendance, Status: session.StatusActive}
	m.snapshot = machine.snapshot

	m = press(t, m, "m")

	if m.mode != session.ModeAttendance || !m.isError {
		t.Errorf("mode must not change during a session, got %s", m.mode)
	}
}

func TestModel_SuccessEvent(t *testing.T) {
	m, _, _, _ := newTestModel()

	model, cmd := m.Update(eventMsg(session.Event{
		Type: session.EventSucceeded,
		Snapshot: session.Snapshot{
			SessionID: "s-1",
			Mode:      session.ModeAttendance,
			Status:    session.StatusSuccess,
			Result: &session.Result{Attendance: &session.AttendanceResult{
				IdentityName: "John Smith", Timestamp: "10:00:00",
			}},
		},
	}))
	m = model.(Model)

	if cmd == nil {
		t.Error("expected the event pump to keep running")
	}
	if !strings.Contains(m.status, "John Smith") {
		t.Errorf("expected welcome message, got %q", m.status)
	}
	if !strings.Contains(m.View(), "John Smith") {
		t.Error("expected identity in the rendered view")
	}
}

func TestModel_ErrorEvent(t *testing.T) {
	m, _, _, _ := newTestModel()

	model, _ := m.Update(eventMsg(session.Event{
		Type:     session.EventDeviceError,
		Snapshot: session.Snapshot{SessionID: "s-1", Status: session.StatusError, Error: "The camera is in use by another application."},
	}))
	m = model.(Model)

	if !m.isError || m.status != "The camera is in use by another application." {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestModel_ResetReloadsForm(t *testing.T) {
	m, _, drafts, _ := newTestModel()
	m.form[fieldName].SetValue("Jane Doe")
	drafts.Clear()

	model, _ := m.Update(eventMsg(session.Event{Type: session.EventReset, Snapshot: session.Snapshot{Status: session.StatusIdle}}))
	m = model.(Model)

	if m.form[fieldName].Value() != "" {
		t.Errorf("expected form to follow the cleared draft, got %q", m.form[fieldName].Value())
	}
}

func TestModel_RosterView(t *testing.T) {
	m, _, _, r := newTestModel()
	r.records = []roster.Record{
		{RollNumber: "17", Name: "John Smith", Status: roster.Present, Time: "10:00:00"},
		{RollNumber: "42", Name: "Jane Doe", Status: roster.Absent},
	}

	m = press(t, m, "2")
	view := m.View()
	if !strings.Contains(view, "1/2 present") || !strings.Contains(view, "Jane Doe") {
		t.Errorf("unexpected roster view:\n%s", view)
	}

	m = press(t, m, "/")
	m = typeText(t, m, "john")
	m = press(t, m, "enter")
	view = m.View()
	if strings.Contains(view, "Jane Doe") || !strings.Contains(view, "John Smith") {
		t.Errorf("expected search to filter the roster:\n%s", view)
	}
}

func TestModel_RosterRefreshError(t *testing.T) {
	m, _, _, _ := newTestModel()

	model, _ := m.Update(rosterMsg{err: errors.New("backend down")})
	m = model.(Model)

	if !m.isError || !strings.Contains(m.status, "backend down") {
		t.Errorf("unexpected status %q", m.status)
	}
}
