// Package tui is the kiosk's terminal front end. It renders the session and
// roster and turns key presses into session operations.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kozaktomas/attendance-kiosk/internal/roster"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// Machine is the part of *session.Machine the UI drives.
type Machine interface {
	Start(mode session.Mode) error
	Capture() error
	Retry() error
	Close()
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Event, func())
}

// Drafts is the registration form store.
type Drafts interface {
	Draft() session.RegistrationDraft
	Set(d session.RegistrationDraft)
}

// Roster is the cached attendance list.
type Roster interface {
	Refresh(ctx context.Context) error
	Records() []roster.Record
	UpdatedAt() time.Time
}

type tabType int

const (
	sessionTab tabType = iota
	rosterTab
)

var tabTitles = []string{"Session", "Roster"}

// focus is where key presses go.
type focus int

const (
	focusKeys focus = iota
	focusForm
	focusSearch
)

const (
	fieldName = iota
	fieldRoll
)

var sortColumns = []string{roster.ColumnRollNumber, roster.ColumnName, roster.ColumnStatus, roster.ColumnTime}

const refreshTimeout = 15 * time.Second

// Msg types
type tickMsg time.Time

type eventMsg session.Event

type eventsClosedMsg struct{}

type rosterMsg struct{ err error }

// Model holds the UI state.
type Model struct {
	machine     Machine
	drafts      Drafts
	roster      Roster
	events      <-chan session.Event
	unsubscribe func()

	width       int
	height      int
	currentTime time.Time
	activeTab   tabType
	focus       focus

	mode     session.Mode
	snapshot session.Snapshot
	status   string
	isError  bool

	form      []textinput.Model
	formField int
	search    textinput.Model
	sortIdx   int
	sortDesc  bool
	spinner   spinner.Model
}

// New returns a Model subscribed to the machine's events.
func New(machine Machine, drafts Drafts, r Roster) Model {
	name := textinput.New()
	name.Placeholder = "Full name"
	name.CharLimit = 80
	roll := textinput.New()
	roll.Placeholder = "Roll number"
	roll.CharLimit = 32

	d := drafts.Draft()
	name.SetValue(d.Name)
	roll.SetValue(d.RollNumber)

	search := textinput.New()
	search.Placeholder = "search name or roll number"
	search.Prompt = "/ "

	events, unsubscribe := machine.Subscribe()

	return Model{
		machine:     machine,
		drafts:      drafts,
		roster:      r,
		events:      events,
		unsubscribe: unsubscribe,
		currentTime: time.Now(),
		mode:        session.ModeAttendance,
		snapshot:    machine.Snapshot(),
		status:      "Ready",
		form:        []textinput.Model{name, roll},
		search:      search,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init starts the clock, the event pump and the first roster fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(timeTickCmd(), waitForEvent(m.events), refreshRoster(m.roster), m.spinner.Tick)
}

// Unsubscribe stops event delivery. Call it after the program exits.
func (m Model) Unsubscribe() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func timeTickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func refreshRoster(r Roster) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return rosterMsg{err: r.Refresh(ctx)}
	}
}

// busy reports whether the session is waiting on the device or the backend.
func (m Model) busy() bool {
	return m.snapshot.Pending != session.PendingNone
}
