// Package audit records every manual reschedule attempt a planner makes,
// whatever the outcome, in a local sqlite trail. The backend owns the
// schedule; this trail answers "who tried to move what, when, and what
// happened" without asking the backend.
package audit

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Origin identifies where a reschedule attempt came from.
type Origin string

const (
	OriginDrag Origin = "drag"
	OriginForm Origin = "form"
	OriginCLI  Origin = "cli"
)

// Outcome represents how a reschedule attempt resolved.
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeRejected   Outcome = "rejected"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeNotFound   Outcome = "not_found"
)

// Event is one reschedule attempt.
type Event struct {
	ID              string    `json:"event_id"`
	TaskID          string    `json:"task_id"`
	WorkstationID   string    `json:"workstation_id"`
	ProposedStart   time.Time `json:"proposed_start"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason,omitempty"`
	Origin          Origin    `json:"origin"`
	Outcome         Outcome   `json:"outcome"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Operator        string    `json:"operator,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
	ResolvedAt      time.Time `json:"resolved_at"`
	DurationMs      int64     `json:"duration_ms"`
}

// NewEvent creates an event with a fresh ULID. ULIDs sort by creation time,
// which keeps the trail naturally ordered.
func NewEvent(taskID string) *Event {
	return &Event{
		ID:          ulid.Make().String(),
		TaskID:      taskID,
		SubmittedAt: time.Now().UTC(),
	}
}

// Resolve stamps the outcome and timing onto the event.
func (e *Event) Resolve(outcome Outcome, errMsg string) *Event {
	e.Outcome = outcome
	e.ErrorMessage = errMsg
	e.ResolvedAt = time.Now().UTC()
	e.DurationMs = e.ResolvedAt.Sub(e.SubmittedAt).Milliseconds()
	return e
}
