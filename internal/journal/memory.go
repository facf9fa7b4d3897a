package journal

import (
	"context"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// Memory is an in-process Store used when no database is configured.
// It keeps at most Capacity outcomes.
type Memory struct {
	mu       sync.RWMutex
	outcomes []session.Outcome
	capacity int

	// Error injection
	RecordError error
	RecentError error
}

// NewMemory creates a store holding up to capacity outcomes, 0 means unbounded.
func NewMemory(capacity int) *Memory {
	return &Memory{capacity: capacity}
}

// Record appends an outcome, dropping the oldest when full.
func (m *Memory) Record(ctx context.Context, o session.Outcome) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
	if m.capacity > 0 && len(m.outcomes) > m.capacity {
		m.outcomes = m.outcomes[len(m.outcomes)-m.capacity:]
	}
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (m *Memory) Recent(ctx context.Context, limit int) ([]session.Outcome, error) {
	if m.RecentError != nil {
		return nil, m.RecentError
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, len(m.outcomes))
	out := make([]session.Outcome, 0, n)
	for i := len(m.outcomes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.outcomes[i])
	}
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
