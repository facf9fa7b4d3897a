// Package roster keeps the attendance list the kiosk shows next to the
// camera and refreshes it after every successful capture.
package roster

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

type Status string

const (
	Present Status = "Present"
	Absent  Status = "Absent"
)

// Record is one person's attendance for the day.
type Record struct {
	ID         string `json:"id"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Time       string `json:"time,omitempty"`
}

// Source fetches the backend's attendance list.
type Source interface {
	FetchAttendance(ctx context.Context) ([]recognition.AttendanceEntry, error)
}

// Roster caches the last fetched attendance list.
type Roster struct {
	source Source
	now    func() time.Time

	mu        sync.RWMutex
	records   []Record
	updatedAt time.Time
}

func New(source Source) *Roster {
	return &Roster{source: source, now: time.Now}
}

// Refresh re-fetches the list. On failure the previous list is kept.
func (r *Roster) Refresh(ctx context.Context) error {
	entries, err := r.source.FetchAttendance(ctx)
	if err != nil {
		return fmt.Errorf("refreshing roster: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, fromEntry(e))
	}

	r.mu.Lock()
	r.records = records
	r.updatedAt = r.now()
	r.mu.Unlock()
	return nil
}

// Records returns a copy of the cached list in backend order.
func (r *Roster) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// UpdatedAt returns when the list was last fetched, zero if never.
func (r *Roster) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

func fromEntry(e recognition.AttendanceEntry) Record {
	status := Absent
	if strings.EqualFold(e.Status, string(Present)) {
		status = Present
	}
	rec := Record{
		ID:         e.RollNumber,
		RollNumber: e.RollNumber,
		Name:       e.Name,
		Status:     status,
	}
	if e.Time != nil {
		rec.Time = *e.Time
	}
	return rec
}

// Search keeps records whose name or roll number contains term, ignoring
// case and diacritics.
func Search(records []Record, term string) []Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return records
	}
	name := foldName(term)
	roll := strings.ToLower(term)
	var out []Record
	for _, rec := range records {
		if strings.Contains(foldName(rec.Name), name) ||
			strings.Contains(strings.ToLower(rec.RollNumber), roll) {
			out = append(out, rec)
		}
	}
	return out
}

// Columns accepted by Sort.
const (
	ColumnRollNumber = "roll_number"
	ColumnName       = "name"
	ColumnStatus     = "status"
	ColumnTime       = "time"
)

// Sort returns records ordered by column. Unknown columns keep the input order.
func Sort(records []Record, column string, desc bool) []Record {
	key := sortKey(column)
	if key == nil {
		return records
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		c := cmp.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
	return out
}

func sortKey(column string) func(Record) string {
	switch column {
	case ColumnRollNumber:
		return func(r Record) string { return r.RollNumber }
	case ColumnName:
		return func(r Record) string { return foldName(r.Name) }
	case ColumnStatus:
		return func(r Record) string { return string(r.Status) }
	case ColumnTime:
		return func(r Record) string { return r.Time }
	default:
		return nil
	}
}
