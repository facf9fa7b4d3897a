package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

type stubSource struct {
	entries []recognition.AttendanceEntry
	err     error
	calls   int
}

func (s *stubSource) FetchAttendance(ctx context.Context) ([]recognition.AttendanceEntry, error) {
	s.calls++
	return s.entries, s.err
}

func strPtr(s string) *string { return &s }

func sampleEntries() []recognition.AttendanceEntry {
	return []recognition.AttendanceEntry{
		{RollNumber: "17", Name: "John Smith", Status: "Present", Time: strPtr("10:00:00")},
		{RollNumber: "42", Name: "Jane Doe", Status: "Absent"},
		{RollNumber: "03", Name: "alice Brown", Status: "Present", Time: strPtr("09:15:00")},
	}
}

func TestRefresh_MapsEntries(t *testing.T) {
	src := &stubSource{entries: sampleEntries()}
	r := New(src)
	fixed := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	records := r.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "17" {
		t.Errorf("expected ID to be the roll number, got %s", records[0].ID)
	}
	if records[0].Status != Present || records[0].Time != "10:00:00" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Status != Absent || records[1].Time != "" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
	if !r.UpdatedAt().Equal(fixed) {
		t.Errorf("expected UpdatedAt %v, got %v", fixed, r.UpdatedAt())
	}
}

func TestRefresh_FailureKeepsPreviousList(t *testing.T) {
	src := &stubSource{entries: sampleEntries()}
	r := New(src)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	fetchErr := &recognition.FetchError{Status: 500, Message: "down"}
	src.err = fetchErr
	src.entries = nil

	err := r.Refresh(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected wrapped FetchError, got %v", err)
	}
	if len(r.Records()) != 3 {
		t.Errorf("expected previous 3 records to be kept, got %d", len(r.Records()))
	}
}

func TestSearch(t *testing.T) {
	records := []Record{
		{RollNumber: "17", Name: "John Smith"},
		{RollNumber: "42", Name: "Jane Doe"},
		{RollNumber: "142", Name: "Bob"},
		{RollNumber: "7", Name: "Jiří Novák-Dvořák"},
		{RollNumber: "CS-42", Name: "Ada"},
	}

	tests := []struct {
		term string
		want int
	}{
		{"", 5},
		{"CS-42", 1},
		{"cs-4", 1},
		{"jiri", 1},
		{"novak dvorak", 1},
		{"Dvořák", 1},
		{"jo", 1},
		{"JANE", 1},
		{"42", 3},
		{"zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := len(Search(records, tt.term)); got != tt.want {
				t.Errorf("Search(%q) returned %d records, want %d", tt.term, got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	records := []Record{
		{RollNumber: "17", Name: "John Smith", Status: Present, Time: "10:00:00"},
		{RollNumber: "42", Name: "Jane Doe", Status: Absent},
		{RollNumber: "03", Name: "alice Brown", Status: Present, Time: "09:15:00"},
	}

	byName := Sort(records, ColumnName, false)
	if byName[0].Name != "alice Brown" || byName[2].Name != "John Smith" {
		t.Errorf("unexpected name order: %v", byName)
	}

	byRollDesc := Sort(records, ColumnRollNumber, true)
	if byRollDesc[0].RollNumber != "42" || byRollDesc[2].RollNumber != "03" {
		t.Errorf("unexpected roll number order: %v", byRollDesc)
	}

	unknown := Sort(records, "color", false)
	if unknown[0].RollNumber != "17" {
		t.Error("expected unknown column to keep input order")
	}

	if records[0].RollNumber != "17" {
		t.Error("Sort must not reorder its input")
	}
}

func TestFoldName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"Žluťoučký kůň", "zlutoucky kun"},
		{"JOHN DOE", "john doe"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := foldName(tt.input); got != tt.expected {
				t.Errorf("foldName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
