package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.currentTime = time.Time(msg)
		return m, timeTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		return m.handleEvent(session.Event(msg))

	case eventsClosedMsg:
		return m, nil

	case rosterMsg:
		if msg.err != nil {
			m.setStatus("Roster refresh failed: "+msg.err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.focus {
		case focusForm:
			return m.updateForm(msg)
		case focusSearch:
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	m.snapshot = ev.Snapshot
	cmds := []tea.Cmd{waitForEvent(m.events)}

	switch ev.Type {
	case session.EventStarted:
		m.setStatus("Opening camera...", false)
	case session.EventAcquired:
		m.setStatus("Camera ready. Press space to capture.", false)
	case session.EventProcessing:
		m.setStatus("Recognizing...", false)
	case session.EventDeviceError, session.EventFailed:
		m.setStatus(ev.Snapshot.Error, true)
	case session.EventRetrying:
		if ev.Snapshot.Error == "" {
			m.setStatus("Reopening camera...", false)
		}
	case session.EventSucceeded:
		m.setStatus(successText(ev.Snapshot.Result), false)
	case session.EventReset:
		// A finished registration clears the form.
		d := m.drafts.Draft()
		m.form[fieldName].SetValue(d.Name)
		m.form[fieldRoll].SetValue(d.RollNumber)
		cmds = append(cmds, refreshRoster(m.roster))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabType(len(tabTitles))
	case "1":
		m.activeTab = sessionTab
	case "2":
		m.activeTab = rosterTab

	case "m":
		if m.snapshot.SessionID != "" {
			m.setStatus("Close the session before switching mode", true)
			break
		}
		if m.mode == session.ModeAttendance {
			m.mode = session.ModeRegistration
		} else {
			m.mode = session.ModeAttendance
		}
		m.setStatus(fmt.Sprintf("Mode: %s", m.mode), false)

	case "e":
		if m.mode == session.ModeRegistration && m.snapshot.SessionID == "" {
			m.activeTab = sessionTab
			return m.focusForm(fieldName)
		}

	case "s":
		m.report(m.machine.Start(m.mode))
	case " ", "c", "enter":
		m.report(m.machine.Capture())
	case "r":
		m.report(m.machine.Retry())
	case "x", "esc":
		m.machine.Close()
		m.setStatus("Session closed", false)

	case "/":
		m.activeTab = rosterTab
		m.focus = focusSearch
		return m, m.search.Focus()
	case "o":
		m.sortIdx = (m.sortIdx + 1) % len(sortColumns)
	case "d":
		m.sortDesc = !m.sortDesc
	case "R":
		m.setStatus("Refreshing roster...", false)
		return m, refreshRoster(m.roster)
	}
	return m, nil
}

// report shows why the machine refused an operation.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, session.ErrIncompleteDraft):
		m.setStatus("Enter name and roll number first (press e)", true)
	case errors.Is(err, session.ErrSessionActive):
		m.setStatus("A session is already running", true)
	case errors.Is(err, session.ErrInvalidTransition):
		m.setStatus("Not now: "+describeWait(m.snapshot), true)
	default:
		m.setStatus(err.Error(), true)
	}
}

func (m Model) focusForm(field int) (tea.Model, tea.Cmd) {
	m.focus = focusForm
	m.formField = field
	for i := range m.form {
		m.form[i].Blur()
	}
	return m, m.form[field].Focus()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form[m.formField].Blur()
		m.focus = focusKeys
		return m, nil
	case "tab", "down", "up", "shift+tab":
		return m.focusForm((m.formField + 1) % len(m.form))
	case "enter":
		if m.formField == fieldName {
			return m.focusForm(fieldRoll)
		}
		m.drafts.Set(session.RegistrationDraft{
			Name:       m.form[fieldName].Value(),
			RollNumber: m.form[fieldRoll].Value(),
		})
		m.form[m.formField].Blur()
		m.focus = focusKeys
		if m.drafts.Draft().Complete() {
			m.setStatus("Details saved. Press s to start registration.", false)
		} else {
			m.setStatus("Name and roll number are both required", true)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.form[m.formField], cmd = m.form[m.formField].Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.search.Blur()
		m.focus = focusKeys
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.isError = isError
}

func describeWait(s session.Snapshot) string {
	switch {
	case s.SessionID == "":
		return "no session (press s)"
	case s.Pending == session.PendingAcquire:
		return "camera is opening"
	case s.Pending == session.PendingSubmit:
		return "waiting for recognition"
	default:
		return string(s.Status)
	}
}

func successText(r *session.Result) string {
	switch {
	case r == nil:
		return "Done"
	case r.Attendance != nil:
		return fmt.Sprintf("Welcome, %s! Attendance marked at %s", r.Attendance.IdentityName, r.Attendance.Timestamp)
	case r.Registration != nil:
		return fmt.Sprintf("Registered %s (%s)", r.Registration.Name, r.Registration.RollNumber)
	}
	return "Done"
}
