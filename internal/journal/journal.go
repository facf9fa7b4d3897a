// Package journal keeps a history of ended capture sessions.
package journal

import (
	"context"

	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// DefaultLimit is how many outcomes History returns when no limit is given.
const DefaultLimit = 20

// Store records session outcomes and lists the most recent ones first.
type Store interface {
	Record(ctx context.Context, o session.Outcome) error
	Recent(ctx context.Context, limit int) ([]session.Outcome, error)
	Close() error
}

// Summary aggregates a list of outcomes.
type Summary struct {
	Sessions      int `json:"sessions"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	Attendance    int `json:"attendance"`
	Registrations int `json:"registrations"`
}

// Summarize counts outcomes by result and mode.
func Summarize(outcomes []session.Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Sessions++
		if o.Succeeded {
			s.Succeeded++
		} else {
			s.Failed++
		}
		switch o.Mode {
		case session.ModeAttendance:
			s.Attendance++
		case session.ModeRegistration:
			s.Registrations++
		}
	}
	return s
}
