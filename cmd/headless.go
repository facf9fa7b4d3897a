package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// sessionRunner is the part of the session machine a one-shot command drives.
type sessionRunner interface {
	Start(mode session.Mode) error
	Capture() error
	Retry() error
	Close()
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Event, func())
}

var errSessionClosed = errors.New("session closed before it finished")

// resyncInterval is how long runSession waits on a quiet event stream before
// checking the machine state directly. The broadcaster drops events for a
// listener whose buffer is full.
var resyncInterval = 2 * time.Second

// runSession starts a session in mode and drives it without an operator:
// it captures as soon as the camera is open and retries up to retries times
// after a failed submission or device error. progress receives a short
// description of every transition.
func runSession(ctx context.Context, m sessionRunner, mode session.Mode, retries int, progress func(string)) (*session.Result, error) {
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	if err := m.Start(mode); err != nil {
		return nil, err
	}
	defer m.Close()

	handle := func(ev session.Event) (*session.Result, bool, error) {
		switch ev.Type {
		case session.EventAcquired:
			if err := m.Capture(); err != nil {
				return nil, true, err
			}
		case session.EventSucceeded:
			return ev.Snapshot.Result, true, nil
		case session.EventFailed:
			if retries <= 0 {
				return nil, true, errors.New(ev.Snapshot.Error)
			}
			// The machine re-opens the camera on its own after a failed submission.
			retries--
		case session.EventDeviceError:
			if retries <= 0 {
				return nil, true, errors.New(ev.Snapshot.Error)
			}
			retries--
			if err := m.Retry(); err != nil {
				return nil, true, err
			}
		case session.EventReset:
			return nil, true, errSessionClosed
		}
		return nil, false, nil
	}

	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()

	for {
		var ev session.Event
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil, errSessionClosed
			}
			ev = e
			ticker.Reset(resyncInterval)
		case <-ticker.C:
			// Snapshot first: every transition it reflects has already been
			// sent, so an empty buffer means that event was handled or dropped.
			snap := m.Snapshot()
			if len(events) > 0 {
				continue
			}
			typ, ok := resyncEvent(snap)
			if !ok {
				continue
			}
			ev = session.Event{Type: typ, Snapshot: snap}
		}

		progress(describeEvent(ev))
		if result, done, err := handle(ev); done {
			return result, err
		}
	}
}

// resyncEvent maps a settled snapshot to the event that would have led to it.
// States the machine leaves on its own map to nothing.
func resyncEvent(snap session.Snapshot) (string, bool) {
	if snap.Pending != session.PendingNone {
		return "", false
	}
	switch snap.Status {
	case session.StatusIdle:
		return session.EventReset, true
	case session.StatusActive:
		if snap.DeviceHeld {
			return session.EventAcquired, true
		}
	case session.StatusSuccess:
		return session.EventSucceeded, true
	case session.StatusError:
		return session.EventDeviceError, true
	}
	return "", false
}

func describeEvent(ev session.Event) string {
	switch ev.Type {
	case session.EventStarted:
		return "Opening camera"
	case session.EventAcquired:
		return "Capturing"
	case session.EventProcessing:
		return "Recognizing"
	case session.EventSucceeded:
		return "Done"
	case session.EventFailed, session.EventDeviceError:
		return ev.Snapshot.Error
	case session.EventRetrying:
		return "Retrying"
	default:
		return string(ev.Snapshot.Status)
	}
}

// newSpinner returns an indeterminate progress bar on stderr.
func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)
}

// runOneShot builds a kiosk, runs a single session and tears everything down.
func runOneShot(cfg *config.Config, mode session.Mode, retries int, timeout time.Duration, prepare func(*kiosk.Kiosk)) (*session.Result, error) {
	ctx := context.Background()
	k, err := kiosk.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		_ = k.Close(closeCtx)
	}()

	if prepare != nil {
		prepare(k)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bar := newSpinner("Starting")
	result, err := runSession(runCtx, k.Machine, mode, retries, func(desc string) {
		bar.Describe(desc)
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("%s session failed: %w", mode, err)
	}
	return result, nil
}
