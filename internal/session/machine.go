// Package session implements the capture session state machine: it acquires
// the camera, takes a still, submits it for recognition and handles success
// dwell, failure recovery and cancellation.
//
// Operations only return errors for events the machine refuses. Failures of
// the device or the backend are session state and surface through Snapshot
// and the event stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance-kiosk/internal/camera"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// Capturer turns the current frame of a handle into an encoded still.
type Capturer interface {
	Capture(h camera.Handle) (*capture.Image, error)
}

// Recognizer submits stills to the recognition backend.
type Recognizer interface {
	SubmitAttendance(ctx context.Context, img *capture.Image) (*recognition.Match, error)
	SubmitRegistration(ctx context.Context, reg recognition.Registration, img *capture.Image) (*recognition.Confirmation, error)
}

// Notifier is told about every successful session so the roster can refresh.
type Notifier interface {
	Refresh(ctx context.Context) error
}

// Journal records discarded sessions.
type Journal interface {
	Record(ctx context.Context, o Outcome) error
}

// Timer is the part of *time.Timer the machine uses.
type Timer interface {
	Stop() bool
}

// Deps wires a Machine. Device, Capturer, Recognizer and Drafts are required.
type Deps struct {
	Device     camera.Device
	Capturer   Capturer
	Recognizer Recognizer
	Drafts     DraftStore
	Notifier   Notifier // optional
	Journal    Journal  // optional
	Logger     *slog.Logger

	Dwell     time.Duration
	AfterFunc func(d time.Duration, f func()) Timer
	NewID     func() string
	Now       func() time.Time
}

// Machine owns at most one live capture session.
type Machine struct {
	device     camera.Device
	capturer   Capturer
	recognizer Recognizer
	drafts     DraftStore
	notifier   Notifier
	journal    Journal
	logger     *slog.Logger
	dwell      time.Duration
	afterFunc  func(time.Duration, func()) Timer
	newID      func() string
	now        func() time.Time

	events EventBroadcaster
	wg     sync.WaitGroup

	mu        sync.Mutex
	cur       *session
	thumbnail *capture.Image
}

// session is one end-to-end attempt. It is only touched with Machine.mu held.
type session struct {
	id             string
	mode           Mode
	draft          RegistrationDraft
	status         Status
	pending        Pending
	handle         camera.Handle
	frame          *capture.Image
	result         *Result
	errMsg         string
	lastErr        string
	closeRequested bool
	dwell          Timer
	attempts       int
	startedAt      time.Time
}

func New(d Deps) *Machine {
	m := &Machine{
		device:     d.Device,
		capturer:   d.Capturer,
		recognizer: d.Recognizer,
		drafts:     d.Drafts,
		notifier:   d.Notifier,
		journal:    d.Journal,
		logger:     d.Logger,
		dwell:      d.Dwell,
		afterFunc:  d.AfterFunc,
		newID:      d.NewID,
		now:        d.Now,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.dwell <= 0 {
		m.dwell = constants.DefaultDwell
	}
	if m.afterFunc == nil {
		m.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.drafts == nil {
		m.drafts = &MemoryDraft{}
	}
	return m
}

// Start creates a session in mode and begins acquiring the camera. The
// session stays idle until the device is open, then becomes active; a device
// failure leaves it in error without ever entering active.
func (m *Machine) Start(mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		return ErrSessionActive
	}
	if mode != ModeAttendance && mode != ModeRegistration {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, mode)
	}

	s := &session{
		id:        m.newID(),
		mode:      mode,
		status:    StatusIdle,
		startedAt: m.now(),
	}
	if mode == ModeRegistration {
		s.draft = m.drafts.Draft()
		if !s.draft.Complete() {
			return ErrIncompleteDraft
		}
	}

	m.cur = s
	m.log(s).Info("session started")
	m.acquireLocked(s, EventStarted)
	return nil
}

// Capture takes a still from the active session's camera, releases the
// camera and submits the still in the background.
func (m *Machine) Capture() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.cur
	if s == nil {
		return fmt.Errorf("%w: capture with no live session", ErrInvalidTransition)
	}
	if s.status != StatusActive || s.pending != PendingNone || s.handle == nil {
		return fmt.Errorf("%w: capture while %s", ErrInvalidTransition, describe(s))
	}

	s.errMsg = ""
	s.attempts++
	img, err := m.capturer.Capture(s.handle)

	// The camera is only needed for the frame itself.
	s.handle.Release()
	s.handle = nil

	if err != nil {
		m.failLocked(s, err)
		m.log(s).Warn("capture failed", "error", err)
		m.emitLocked(s, EventDeviceError)
		return nil
	}

	s.frame = img
	s.status = StatusCaptured
	m.emitLocked(s, EventCaptured)

	s.status = StatusProcessing
	s.pending = PendingSubmit
	m.emitLocked(s, EventProcessing)

	m.wg.Add(1)
	go m.submit(s, img)
	return nil
}

// Retry re-acquires the camera for a session that ended up in error.
func (m *Machine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.cur
	if s == nil || s.status != StatusError || s.pending != PendingNone {
		return fmt.Errorf("%w: retry while %s", ErrInvalidTransition, describe(s))
	}
	m.acquireLocked(s, EventRetrying)
	return nil
}

// Close cancels the live session and releases the camera. Outstanding
// acquisitions and submissions run to completion and their results are
// dropped. Closing with no live session is a no-op.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.cur
	if s == nil {
		return
	}

	s.closeRequested = true
	s.status = StatusClosing
	camera.Release(s.handle)
	s.handle = nil
	if s.dwell != nil {
		s.dwell.Stop()
		s.dwell = nil
	}
	m.emitLocked(s, EventClosing)

	if s.result != nil {
		m.completeLocked(s)
	}
	m.discardLocked(s)
}

// Shutdown closes the live session and waits for background work to finish.
func (m *Machine) Shutdown(ctx context.Context) error {
	m.Close()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session work: %w", ctx.Err())
	}
}

// Wait blocks until no acquisition, submission or notification is running.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(m.cur)
}

// Frame returns the captured still of the live session, if any.
func (m *Machine) Frame() *capture.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil
	}
	return m.cur.frame
}

// Thumbnail returns the still of the last successful registration.
func (m *Machine) Thumbnail() *capture.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thumbnail
}

// Subscribe returns a channel of transition events and a function that
// unsubscribes and closes it.
func (m *Machine) Subscribe() (<-chan Event, func()) {
	ch := m.events.AddListener()
	return ch, func() { m.events.RemoveListener(ch) }
}

// acquireLocked opens the camera in the background. While it runs the
// session keeps its current status with pending=acquire.
func (m *Machine) acquireLocked(s *session, event string) {
	s.pending = PendingAcquire
	m.emitLocked(s, event)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		h, err := m.device.Acquire(context.Background())

		m.mu.Lock()
		defer m.mu.Unlock()

		if !m.liveLocked(s) {
			// Closed while opening: nobody will ever release this handle otherwise.
			camera.Release(h)
			m.log(s).Debug("dropping camera acquired after close")
			return
		}
		s.pending = PendingNone

		if err != nil {
			m.failLocked(s, err)
			m.log(s).Warn("camera acquisition failed", "error", err)
			m.emitLocked(s, EventDeviceError)
			return
		}

		s.handle = h
		s.status = StatusActive
		m.log(s).Debug("camera acquired")
		m.emitLocked(s, EventAcquired)
	}()
}

// submit runs the backend call outside the lock and applies its result only
// if the session is still live.
func (m *Machine) submit(s *session, img *capture.Image) {
	defer m.wg.Done()

	// Not tied to Close: a late result is discarded, not cancelled.
	ctx := context.Background()

	var result *Result
	var err error
	switch s.mode {
	case ModeAttendance:
		var match *recognition.Match
		match, err = m.recognizer.SubmitAttendance(ctx, img)
		if err == nil {
			result = &Result{Attendance: &AttendanceResult{
				IdentityName: match.Name,
				RollNumber:   match.RollNumber,
				Timestamp:    match.Time,
			}}
		}
	case ModeRegistration:
		var conf *recognition.Confirmation
		reg := recognition.Registration{Name: s.draft.Name, RollNumber: s.draft.RollNumber}
		conf, err = m.recognizer.SubmitRegistration(ctx, reg, img)
		if err == nil {
			result = &Result{Registration: &RegistrationResult{
				Confirmed:  true,
				Name:       conf.Name,
				RollNumber: conf.RollNumber,
				Message:    conf.Message,
				Thumbnail:  img,
			}}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.liveLocked(s) {
		m.log(s).Debug("dropping submission result after close", "error", err)
		return
	}
	s.pending = PendingNone

	if err != nil {
		s.errMsg = userMessage(err)
		s.lastErr = s.errMsg
		s.frame = nil
		s.status = StatusActive
		m.log(s).Warn("submission failed", "error", err)
		m.emitLocked(s, EventFailed)
		m.acquireLocked(s, EventRetrying)
		return
	}

	s.result = result
	s.status = StatusSuccess
	m.log(s).Info("submission succeeded", "identity", identity(result))
	m.emitLocked(s, EventSucceeded)

	m.notifyLocked(s)
	s.dwell = m.afterFunc(m.dwell, func() { m.endDwell(s) })
}

// endDwell resets a session whose success has been on screen long enough.
func (m *Machine) endDwell(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != s || s.status != StatusSuccess {
		return
	}
	s.dwell = nil
	m.completeLocked(s)
	m.discardLocked(s)
}

// completeLocked applies the effects of a successful session leaving success.
func (m *Machine) completeLocked(s *session) {
	if s.mode == ModeRegistration && s.result != nil && s.result.Registration != nil {
		m.thumbnail = s.result.Registration.Thumbnail
		m.drafts.Clear()
	}
}

// discardLocked drops s and returns the machine to idle.
func (m *Machine) discardLocked(s *session) {
	m.cur = nil
	m.log(s).Info("session ended", "succeeded", s.result != nil, "attempts", s.attempts)
	m.events.SendEvent(Event{Type: EventReset, Snapshot: m.snapshotLocked(nil)})
	m.recordLocked(s)
}

func (m *Machine) failLocked(s *session, err error) {
	s.errMsg = userMessage(err)
	s.lastErr = s.errMsg
	s.frame = nil
	s.status = StatusError
}

// notifyLocked refreshes the roster without waiting; its failure never
// touches the session.
func (m *Machine) notifyLocked(s *session) {
	if m.notifier == nil {
		return
	}
	logger := m.log(s)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.NotifyTimeout)
		defer cancel()
		if err := m.notifier.Refresh(ctx); err != nil {
			logger.Warn("roster refresh failed", "error", err)
		}
	}()
}

func (m *Machine) recordLocked(s *session) {
	if m.journal == nil {
		return
	}
	o := Outcome{
		SessionID: s.id,
		Mode:      s.mode,
		Succeeded: s.result != nil,
		LastError: s.lastErr,
		Attempts:  s.attempts,
		StartedAt: s.startedAt,
		EndedAt:   m.now(),
	}
	if s.result != nil {
		o.Identity, o.RollNumber = identity(s.result), rollNumber(s.result)
	}
	logger := m.log(s)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.JournalTimeout)
		defer cancel()
		if err := m.journal.Record(ctx, o); err != nil {
			logger.Warn("journal write failed", "error", err)
		}
	}()
}

func (m *Machine) liveLocked(s *session) bool {
	return m.cur == s && !s.closeRequested
}

func (m *Machine) emitLocked(s *session, eventType string) {
	m.events.SendEvent(Event{Type: eventType, Snapshot: m.snapshotLocked(s)})
}

func (m *Machine) snapshotLocked(s *session) Snapshot {
	if s == nil {
		return Snapshot{Status: StatusIdle}
	}
	return Snapshot{
		SessionID:      s.id,
		Mode:           s.mode,
		Status:         s.status,
		Pending:        s.pending,
		Error:          s.errMsg,
		HasFrame:       s.frame != nil,
		DeviceHeld:     s.handle != nil,
		CloseRequested: s.closeRequested,
		Attempts:       s.attempts,
		Result:         s.result,
		StartedAt:      s.startedAt,
	}
}

func (m *Machine) log(s *session) *slog.Logger {
	return m.logger.With("session_id", s.id, "mode", string(s.mode))
}

func describe(s *session) string {
	if s == nil {
		return string(StatusIdle)
	}
	if s.pending != PendingNone {
		return fmt.Sprintf("%s (waiting on %s)", s.status, s.pending)
	}
	return string(s.status)
}

// userMessage is the operator-facing text for a device or backend failure.
func userMessage(err error) string {
	var devErr *camera.DeviceError
	if errors.As(err, &devErr) {
		return devErr.Message()
	}
	var recErr *recognition.Error
	if errors.As(err, &recErr) && recErr.Message != "" {
		return recErr.Message
	}
	return "An error occurred. Please try again."
}

func identity(r *Result) string {
	switch {
	case r == nil:
		return ""
	case r.Attendance != nil:
		return r.Attendance.IdentityName
	case r.Registration != nil:
		return r.Registration.Name
	}
	return ""
}

func rollNumber(r *Result) string {
	switch {
	case r == nil:
		return ""
	case r.Attendance != nil:
		return r.Attendance.RollNumber
	case r.Registration != nil:
		return r.Registration.RollNumber
	}
	return ""
}
