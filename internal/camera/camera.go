// Package camera owns the capture device lifecycle: exclusive acquisition of a
// stream, reading single frames from it, and releasing it again.
package camera

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Device opens an exclusive capture stream.
type Device interface {
	// Acquire opens the stream. It fails with a *DeviceError when the device
	// cannot be opened, including when this process already holds it.
	Acquire(ctx context.Context) (Handle, error)
}

// Handle is an open capture stream. Release is idempotent and safe to call on
// a handle whose device has already gone away.
type Handle interface {
	Frame() (image.Image, error)
	Release()
}

// Release releases h if it is non-nil.
func Release(h Handle) {
	if h != nil {
		h.Release()
	}
}

// ErrorKind classifies why a device could not deliver a stream or frame.
type ErrorKind int

const (
	PermissionDenied ErrorKind = iota + 1
	NotFound
	Busy
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case NotFound:
		return "not found"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// DeviceError is returned by Acquire and Frame.
type DeviceError struct {
	Kind   ErrorKind
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera %s: %s: %v", e.Device, e.Kind, e.Err)
	}
	return fmt.Sprintf("camera %s: %s", e.Device, e.Kind)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the operator.
func (e *DeviceError) Message() string {
	switch e.Kind {
	case PermissionDenied:
		return "Camera access was denied. Allow camera access and try again."
	case Busy:
		return "The camera is in use by another application."
	default:
		return "No camera found. Check that it is connected."
	}
}

// lease enforces the single-holder discipline of a device.
type lease struct {
	mu   sync.Mutex
	held bool
}

func (l *lease) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false
	}
	l.held = true
	return true
}

func (l *lease) free() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}

// Held reports whether a handle is currently outstanding.
func (l *lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
