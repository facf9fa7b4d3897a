package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// Mode is fixed for a session's lifetime.
type Mode string

const (
	ModeAttendance   Mode = "attendance"
	ModeRegistration Mode = "registration"
)

// ParseMode accepts "attendance", "registration" and the short "register".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attendance", "attend":
		return ModeAttendance, nil
	case "registration", "register":
		return ModeRegistration, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want attendance or registration)", s)
	}
}

// Status is the state of the live session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusActive     Status = "active"
	StatusCaptured   Status = "captured"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
	StatusClosing    Status = "closing"
)

// Pending names the asynchronous operation a session is waiting on.
type Pending string

const (
	PendingNone    Pending = ""
	PendingAcquire Pending = "acquire"
	PendingSubmit  Pending = "submit"
)

// Errors returned for events the machine refuses. A refused event changes nothing.
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSessionActive     = errors.New("a capture session is already live")
	ErrIncompleteDraft   = errors.New("name and roll number are required to register")
)

// AttendanceResult is the outcome of a successful attendance session.
type AttendanceResult struct {
	IdentityName string `json:"identity_name"`
	RollNumber   string `json:"roll_number,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// RegistrationResult is the outcome of a successful registration session.
// Thumbnail is the captured frame, kept as the new person's profile picture.
type RegistrationResult struct {
	Confirmed  bool           `json:"confirmed"`
	Name       string         `json:"name"`
	RollNumber string         `json:"roll_number"`
	Message    string         `json:"message,omitempty"`
	Thumbnail  *capture.Image `json:"-"`
}

// Result holds exactly one of its fields, matching the session mode.
type Result struct {
	Attendance   *AttendanceResult   `json:"attendance,omitempty"`
	Registration *RegistrationResult `json:"registration,omitempty"`
}

// Snapshot is a read-only copy of the machine state.
type Snapshot struct {
	SessionID      string    `json:"session_id,omitempty"`
	Mode           Mode      `json:"mode,omitempty"`
	Status         Status    `json:"status"`
	Pending        Pending   `json:"pending,omitempty"`
	Error          string    `json:"error,omitempty"`
	HasFrame       bool      `json:"has_frame"`
	DeviceHeld     bool      `json:"device_held"`
	CloseRequested bool      `json:"close_requested,omitempty"`
	Attempts       int       `json:"attempts"`
	Result         *Result   `json:"result,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
}

// Event is broadcast on every transition.
type Event struct {
	Type     string   `json:"type"`
	Snapshot Snapshot `json:"snapshot"`
}

// Event types.
const (
	EventStarted     = "started"
	EventAcquired    = "acquired"
	EventDeviceError = "device_error"
	EventCaptured    = "captured"
	EventProcessing  = "processing"
	EventSucceeded   = "succeeded"
	EventFailed      = "failed"
	EventRetrying    = "retrying"
	EventClosing     = "closing"
	EventReset       = "reset"
)

// Outcome summarises a discarded session for the journal.
type Outcome struct {
	SessionID  string    `json:"session_id"`
	Mode       Mode      `json:"mode"`
	Succeeded  bool      `json:"succeeded"`
	Identity   string    `json:"identity,omitempty"` // matched or registered name
	RollNumber string    `json:"roll_number,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Attempts   int       `json:"attempts"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// RegistrationDraft is the form data a registration session enrolls.
type RegistrationDraft struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// Complete reports whether both fields are non-empty.
func (d RegistrationDraft) Complete() bool {
	return strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.RollNumber) != ""
}

// DraftStore is the registration form. The machine reads it on Start and
// clears it after a successful registration.
type DraftStore interface {
	Draft() RegistrationDraft
	Clear()
}

// MemoryDraft is a DraftStore shared by the terminal UI, HTTP API and CLI flags.
type MemoryDraft struct {
	mu    sync.RWMutex
	draft RegistrationDraft
}

func (m *MemoryDraft) Set(d RegistrationDraft) {
	m.mu.Lock()
	m.draft = RegistrationDraft{Name: strings.TrimSpace(d.Name), RollNumber: strings.TrimSpace(d.RollNumber)}
	m.mu.Unlock()
}

func (m *MemoryDraft) Draft() RegistrationDraft {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.draft
}

func (m *MemoryDraft) Clear() {
	m.mu.Lock()
	m.draft = RegistrationDraft{}
	m.mu.Unlock()
}
