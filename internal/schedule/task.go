// Package schedule defines the scheduling domain: tasks, orders, conflict
// detection, and the store that reconciles server snapshots with local
// optimistic edits.
package schedule

import (
	"time"
)

// Status represents the lifecycle state of an order or task.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task is a time-boxed unit of production work assigned to a workstation.
// Tasks are created and deleted only by the backend scheduler; this side
// proposes moves and never invents task IDs.
type Task struct {
	ID               string    `json:"taskId"`
	OrderID          string    `json:"orderId,omitempty"`
	WorkstationID    string    `json:"workstationId"`
	WorkstationName  string    `json:"workstationName,omitempty"`
	StartTime        time.Time `json:"startTime"`
	DurationMinutes  int       `json:"durationMinutes"`
	Status           Status    `json:"status"`
	ManuallyAdjusted bool      `json:"manuallyAdjusted"`
	ItemName         string    `json:"itemName,omitempty"`
	TaskType         string    `json:"taskType,omitempty"`
}

// End returns the derived end instant: StartTime + DurationMinutes.
func (t Task) End() time.Time {
	return t.StartTime.Add(time.Duration(t.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the [start, end) intervals of two tasks intersect.
// Workstation membership is not considered here.
func (t Task) Overlaps(other Task) bool {
	return t.StartTime.Before(other.End()) && other.StartTime.Before(t.End())
}

// Order groups tasks under a production request.
type Order struct {
	ID     string `json:"orderId"`
	Status Status `json:"status"`
	Tasks  []Task `json:"tasks"`
}

// FlattenOrders normalizes nested orders into a flat task list. Order status
// is inherited by tasks that carry none of their own, OrderID is stamped, and
// start times are truncated to minute precision (the backend contract).
func FlattenOrders(orders []Order) []Task {
	var tasks []Task
	for _, o := range orders {
		for _, t := range o.Tasks {
			t.OrderID = o.ID
			if t.Status == "" {
				t.Status = o.Status
			}
			t.StartTime = t.StartTime.Truncate(time.Minute)
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Proposal is a whole-record reschedule request for a single task. The
// backend contract is whole-record: workstation, start, and duration are
// always sent, even when only one of them changed.
type Proposal struct {
	WorkstationID   string    `json:"workstationId"`
	StartTime       time.Time `json:"scheduledStartTime"`
	DurationMinutes int       `json:"duration"`
	Reason          string    `json:"reason,omitempty"`
}

// Validate checks the proposal locally, before any network call.
func (p Proposal) Validate() error {
	if p.WorkstationID == "" {
		return &ValidationError{Field: "workstationId", Reason: "workstation is required"}
	}
	if p.StartTime.IsZero() {
		return &ValidationError{Field: "scheduledStartTime", Reason: "start time is required"}
	}
	if p.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration", Reason: "duration must be a positive number of minutes"}
	}
	return nil
}

// PendingEdit tracks a task between optimistic apply and server resolution.
// At most one exists per task.
type PendingEdit struct {
	TaskID      string
	SubmittedAt time.Time
	Proposed    Proposal
	// Previous is the exact task snapshot taken before the optimistic
	// mutation; RollbackEdit restores it verbatim.
	Previous Task
	// ServerSeen holds the latest poll-derived value for this task, if one
	// arrived while the edit was in flight. Recorded but never displayed.
	ServerSeen *Task
}
