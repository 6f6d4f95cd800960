// Package coordinator owns the per-task edit lifecycle: selection, optimistic
// apply, network submit, and reconcile or rollback. It is the only mutator of
// the store besides the polling refresher.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/logging"
	"github.com/simal/floorboard/internal/schedule"
	"github.com/simal/floorboard/internal/simal"
	"github.com/simal/floorboard/internal/timeline"
)

// State is the per-task edit state.
type State string

const (
	StateIdle          State = "idle"
	StatePendingSubmit State = "pending_submit"
)

// Default reasons distinguish how an edit originated when the planner leaves
// the reason blank.
const (
	defaultDragReason = "moved on the planning board"
	defaultFormReason = "adjusted via edit form"
	defaultCLIReason  = "rescheduled from the command line"
)

// Level classifies a notice for the notification surface.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-facing message about an edit's resolution.
type Notice struct {
	Level   Level
	TaskID  string
	Message string
}

// Backend is the slice of the Simal client the coordinator needs.
type Backend interface {
	Reschedule(ctx context.Context, taskID string, p schedule.Proposal) (schedule.Task, error)
}

// Recorder persists reschedule attempts to the audit trail.
type Recorder interface {
	Save(ctx context.Context, e *audit.Event) error
}

// Coordinator drives reschedule submissions against the store and backend.
type Coordinator struct {
	store    *schedule.Store
	backend  Backend
	recorder Recorder
	operator string
	log      *logging.Logger

	mu     sync.Mutex
	states map[string]State

	// Callbacks, wired by the surrounding application.
	OnConfirmed func(task schedule.Task)
	OnFailed    func(taskID string, err error)
	OnNotice    func(n Notice)
}

// Verify the coordinator satisfies the collaborator contract.
var _ timeline.Handler = (*Coordinator)(nil)

// New creates a coordinator. recorder may be nil (no audit trail).
func New(store *schedule.Store, backend Backend, recorder Recorder, operator string) *Coordinator {
	return &Coordinator{
		store:    store,
		backend:  backend,
		recorder: recorder,
		operator: operator,
		log:      logging.New("coordinator").WithOperator(operator),
		states:   make(map[string]State),
	}
}

// State returns the edit state for a task. Tasks without an in-flight submit
// are Idle.
func (c *Coordinator) State(taskID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[taskID]; ok {
		return s
	}
	return StateIdle
}

// HandleTaskClick seeds an edit form with the task's current visible state.
// The task stays Idle; nothing is submitted until the form is.
func (c *Coordinator) HandleTaskClick(ev timeline.TaskClicked) (schedule.Task, error) {
	t, ok := c.store.Task(ev.TaskID)
	if !ok {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	return t, nil
}

// HandleDragEnd turns a drop into a whole-record proposal: the task's current
// workstation and duration with the new start time.
func (c *Coordinator) HandleDragEnd(ctx context.Context, ev timeline.TaskDragged) error {
	t, ok := c.store.Task(ev.TaskID)
	if !ok {
		return schedule.ErrTaskNotFound
	}
	p := schedule.Proposal{
		WorkstationID:   t.WorkstationID,
		StartTime:       ev.ProposedStart,
		DurationMinutes: t.DurationMinutes,
	}
	return c.Reschedule(ctx, ev.TaskID, p, audit.OriginDrag)
}

// Reschedule runs one edit through the full lifecycle:
// validate locally, apply optimistically, submit, then confirm or roll back.
// While the submit is in flight the task is PendingSubmit and further edits
// for it are rejected with ErrEditInProgress.
func (c *Coordinator) Reschedule(ctx context.Context, taskID string, p schedule.Proposal, origin audit.Origin) error {
	// Local validation never reaches the backend and never mutates the store.
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Reason == "" {
		p.Reason = defaultReason(origin)
	}

	c.mu.Lock()
	if c.states[taskID] == StatePendingSubmit {
		c.mu.Unlock()
		return schedule.ErrEditInProgress
	}
	c.states[taskID] = StatePendingSubmit
	c.mu.Unlock()

	if err := c.store.ApplyOptimistic(taskID, p); err != nil {
		c.clearState(taskID)
		return err
	}

	ev := audit.NewEvent(taskID)
	ev.WorkstationID = p.WorkstationID
	ev.ProposedStart = p.StartTime
	ev.DurationMinutes = p.DurationMinutes
	ev.Reason = p.Reason
	ev.Origin = origin
	ev.Operator = c.operator

	c.log.Info("reschedule_submitted", map[string]any{
		"task": taskID, "workstation": p.WorkstationID, "start": p.StartTime, "origin": string(origin),
	})

	serverTask, err := c.backend.Reschedule(ctx, taskID, p)
	if err != nil {
		c.resolveFailure(ctx, taskID, ev, err)
		return err
	}

	if cerr := c.store.ConfirmEdit(taskID, serverTask); cerr != nil {
		// The edit vanished underneath us (task removed mid-flight); nothing
		// visible to reconcile.
		c.log.Warn("confirm_without_edit", map[string]any{"task": taskID}, cerr)
	}
	c.clearState(taskID)
	c.record(ctx, ev.Resolve(audit.OutcomeConfirmed, ""))

	c.log.Info("reschedule_confirmed", map[string]any{"task": taskID})
	if c.OnConfirmed != nil {
		c.OnConfirmed(serverTask)
	}
	c.notify(Notice{Level: LevelSuccess, TaskID: taskID, Message: "task rescheduled"})
	return nil
}

// resolveFailure rolls the optimistic change back and surfaces the error.
// Every failed reschedule restores the exact prior task state.
func (c *Coordinator) resolveFailure(ctx context.Context, taskID string, ev *audit.Event, err error) {
	defer c.clearState(taskID)

	switch {
	case errors.Is(err, schedule.ErrTaskNotFound):
		// The task is gone server-side; drop it locally. Informational, not
		// alarming.
		c.store.Remove(taskID)
		c.record(ctx, ev.Resolve(audit.OutcomeNotFound, err.Error()))
		c.log.Info("reschedule_task_gone", map[string]any{"task": taskID})
		c.notify(Notice{Level: LevelInfo, TaskID: taskID, Message: "task no longer exists on the schedule"})

	case simal.IsConflictRejected(err):
		if rerr := c.store.RollbackEdit(taskID); rerr != nil {
			c.log.Warn("rollback_without_edit", map[string]any{"task": taskID}, rerr)
		}
		c.record(ctx, ev.Resolve(audit.OutcomeRejected, err.Error()))
		c.log.Warn("reschedule_rejected", map[string]any{"task": taskID}, err)
		// Backend-supplied reason, verbatim.
		c.notify(Notice{Level: LevelError, TaskID: taskID, Message: err.Error()})

	default:
		if rerr := c.store.RollbackEdit(taskID); rerr != nil {
			c.log.Warn("rollback_without_edit", map[string]any{"task": taskID}, rerr)
		}
		c.record(ctx, ev.Resolve(audit.OutcomeRolledBack, err.Error()))
		c.log.Error("reschedule_failed", map[string]any{"task": taskID}, err)
		c.notify(Notice{Level: LevelError, TaskID: taskID, Message: "could not reach the scheduler; the task was not moved"})
	}

	if c.OnFailed != nil {
		c.OnFailed(taskID, err)
	}
}

func (c *Coordinator) clearState(taskID string) {
	c.mu.Lock()
	delete(c.states, taskID)
	c.mu.Unlock()
}

func (c *Coordinator) notify(n Notice) {
	if c.OnNotice != nil {
		c.OnNotice(n)
	}
}

// record writes to the audit trail; a trail failure is logged, never allowed
// to fail the edit itself.
func (c *Coordinator) record(ctx context.Context, ev *audit.Event) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Save(ctx, ev); err != nil {
		c.log.Warn("audit_save_failed", map[string]any{"task": ev.TaskID}, err)
	}
}

func defaultReason(origin audit.Origin) string {
	switch origin {
	case audit.OriginDrag:
		return defaultDragReason
	case audit.OriginForm:
		return defaultFormReason
	default:
		return defaultCLIReason
	}
}
