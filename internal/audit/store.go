package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists audit events to a local sqlite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the audit database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reschedule_events (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		workstation_id TEXT NOT NULL,
		proposed_start DATETIME NOT NULL,
		duration_minutes INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		operator TEXT NOT NULL DEFAULT '',
		submitted_at DATETIME NOT NULL,
		resolved_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_reschedule_task ON reschedule_events(task_id);
	CREATE INDEX IF NOT EXISTS idx_reschedule_submitted ON reschedule_events(submitted_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save persists a resolved event.
func (s *Store) Save(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reschedule_events
		(id, task_id, workstation_id, proposed_start, duration_minutes, reason,
		 origin, outcome, error_message, operator, submitted_at, resolved_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.WorkstationID, e.ProposedStart.UTC(), e.DurationMinutes, e.Reason,
		string(e.Origin), string(e.Outcome), e.ErrorMessage, e.Operator,
		e.SubmittedAt.UTC(), e.ResolvedAt.UTC(), e.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

// QueryFilter defines filters for querying the trail.
type QueryFilter struct {
	TaskID  string
	Outcome Outcome
	Since   time.Time
	Limit   int
}

// Query retrieves events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	conditions := []string{"1=1"}
	var params []any

	if filter.TaskID != "" {
		conditions = append(conditions, "task_id = ?")
		params = append(params, filter.TaskID)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		params = append(params, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "submitted_at >= ?")
		params = append(params, filter.Since.UTC())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	params = append(params, limit)

	query := fmt.Sprintf(`
		SELECT id, task_id, workstation_id, proposed_start, duration_minutes, reason,
		       origin, outcome, error_message, operator, submitted_at, resolved_at, duration_ms
		FROM reschedule_events
		WHERE %s
		ORDER BY submitted_at DESC
		LIMIT ?`, strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var origin, outcome string
		if err := rows.Scan(
			&e.ID, &e.TaskID, &e.WorkstationID, &e.ProposedStart, &e.DurationMinutes, &e.Reason,
			&origin, &outcome, &e.ErrorMessage, &e.Operator, &e.SubmittedAt, &e.ResolvedAt, &e.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Origin = Origin(origin)
		e.Outcome = Outcome(outcome)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of recorded events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reschedule_events").Scan(&n)
	return n, err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
