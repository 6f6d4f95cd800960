// Package timeline defines the contract between the scheduling core and a
// rendering collaborator (the TUI board, or any other view). The collaborator
// consumes normalized task views and emits typed interaction events; it never
// touches the store directly. No rendering framework types appear here.
package timeline

import (
	"context"
	"time"

	"github.com/simal/floorboard/internal/schedule"
)

// Config is what the core hands a collaborator at startup.
type Config struct {
	// Editable enables drag/form interactions.
	Editable bool

	// RefreshInterval is the cadence the collaborator should display; the
	// actual polling is owned by the core.
	RefreshInterval time.Duration

	// ShowCurrentTime asks the view to render a now-marker.
	ShowCurrentTime bool

	// OnRefresh lets the collaborator request an off-cadence refresh
	// (manual refresh action); it delegates to the polling refresher.
	OnRefresh func(ctx context.Context)
}

// TaskClicked is raised when the planner selects a task. Selection only
// seeds an edit form; nothing is submitted.
type TaskClicked struct {
	TaskID string
}

// TaskDragged is raised when the planner drops a task at a new start time.
// The rest of the placement (workstation, duration) is taken from the task's
// current state; the backend contract is whole-record.
type TaskDragged struct {
	TaskID        string
	ProposedStart time.Time
}

// Handler is the core-side sink for collaborator events.
type Handler interface {
	// HandleTaskClick returns the task to seed an edit form with.
	HandleTaskClick(ev TaskClicked) (schedule.Task, error)

	// HandleDragEnd submits a whole-record reschedule derived from the drop.
	HandleDragEnd(ctx context.Context, ev TaskDragged) error
}

// View is the collaborator-side sink for core state. SetTasks is called with
// the store's display list after every merge or edit resolution.
type View interface {
	SetTasks(tasks []schedule.TaskView)
}
