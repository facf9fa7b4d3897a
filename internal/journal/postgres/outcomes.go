package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/journal"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// Journal is the PostgreSQL-backed journal.Store.
type Journal struct {
	pool *Pool
}

var _ journal.Store = (*Journal)(nil)

func NewJournal(pool *Pool) *Journal {
	return &Journal{pool: pool}
}

// Record stores an outcome. Recording the same session twice keeps the latest.
func (j *Journal) Record(ctx context.Context, o session.Outcome) error {
	query := `
		INSERT INTO session_outcomes
			(session_id, mode, succeeded, identity, roll_number, last_error, attempts, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			succeeded = EXCLUDED.succeeded,
			identity = EXCLUDED.identity,
			roll_number = EXCLUDED.roll_number,
			last_error = EXCLUDED.last_error,
			attempts = EXCLUDED.attempts,
			ended_at = EXCLUDED.ended_at
	`

	_, err := j.pool.db.ExecContext(ctx, query,
		o.SessionID, string(o.Mode), o.Succeeded, o.Identity, o.RollNumber,
		o.LastError, o.Attempts, o.StartedAt, o.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("record session outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes, most recently ended first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]session.Outcome, error) {
	if limit <= 0 {
		limit = journal.DefaultLimit
	}

	query := `
		SELECT session_id, mode, succeeded, identity, roll_number, last_error, attempts, started_at, ended_at
		FROM session_outcomes
		ORDER BY ended_at DESC
		LIMIT $1
	`

	rows, err := j.pool.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query session outcomes: %w", err)
	}
	defer rows.Close()

	var out []session.Outcome
	for rows.Next() {
		var o session.Outcome
		var mode string
		if err := rows.Scan(&o.SessionID, &mode, &o.Succeeded, &o.Identity, &o.RollNumber,
			&o.LastError, &o.Attempts, &o.StartedAt, &o.EndedAt); err != nil {
			return nil, fmt.Errorf("scan session outcome: %w", err)
		}
		o.Mode = session.Mode(mode)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session outcomes: %w", err)
	}
	return out, nil
}

func (j *Journal) Close() error {
	return j.pool.Close()
}
