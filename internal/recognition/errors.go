package recognition

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failed submission.
type Kind int

const (
	NoMatch Kind = iota + 1
	DuplicateIdentity
	Malformed
	ServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case DuplicateIdentity:
		return "duplicate identity"
	case Malformed:
		return "malformed"
	case ServiceUnavailable:
		return "service unavailable"
	default:
		return "unknown"
	}
}

// Error is a failed attendance or registration submission. Message is what
// the backend said, or a generic fallback when it said nothing usable.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response arrived
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FetchError is a failed roster fetch.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching attendance failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("fetching attendance failed: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a recognition Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var recErr *Error
	return errors.As(err, &recErr) && recErr.Kind == kind
}

type operation int

const (
	opAttendance operation = iota
	opRegistration
)

func (op operation) fallback() string {
	if op == opRegistration {
		return "Registration failed. Please try again."
	}
	return "Failed to mark attendance. Please try again."
}

// statusError builds the Error for a non-success response.
func statusError(op operation, status int, body []byte) *Error {
	msg := backendMessage(body)
	kind := classifyStatus(op, status, msg)
	if msg == "" {
		switch kind {
		case NoMatch:
			msg = "No matching face found."
		case ServiceUnavailable:
			msg = "Recognition service is unavailable. Please try again later."
		default:
			msg = op.fallback()
		}
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

func classifyStatus(op operation, status int, msg string) Kind {
	switch {
	case status == http.StatusNotFound:
		return NoMatch
	case op == opRegistration && status == http.StatusConflict:
		return DuplicateIdentity
	case op == opRegistration && status == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(msg), "already"):
		return DuplicateIdentity
	case status >= 500:
		return ServiceUnavailable
	default:
		return Malformed
	}
}

// transportError builds the Error for a request that got no response.
func transportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: ServiceUnavailable, Message: "Recognition service did not respond in time.", Err: err}
	}
	return &Error{Kind: ServiceUnavailable, Message: "Recognition service is unavailable. Please try again later.", Err: err}
}

// malformedResponse builds the Error for a success status with an unusable body.
func malformedResponse(status int, err error) *Error {
	return &Error{Kind: Malformed, Status: status, Message: "Unexpected response from recognition service.", Err: err}
}
