package schedule

import (
	"sort"
	"sync"
	"time"
)

// TaskView is a display-ready task annotated with derived conflict state.
// It is the only shape the rendering side ever sees.
type TaskView struct {
	Task
	EndTime  time.Time `json:"endTime"`
	Conflict bool      `json:"conflict"`
	Pending  bool      `json:"pending"`
}

// Store owns the canonical local view of task state. It merges authoritative
// server snapshots with local optimistic edits under one precedence rule: a
// task with an unresolved pending edit keeps its optimistic value until the
// edit confirms or rolls back; everything else is replaced wholesale by the
// server.
//
// Only the polling refresher (MergeServerSnapshot) and the reschedule
// coordinator (ApplyOptimistic/ConfirmEdit/RollbackEdit/Remove) mutate the
// store. Each method is a complete, self-contained transition.
type Store struct {
	mu           sync.RWMutex
	tasks        map[string]Task
	pendingEdits map[string]*PendingEdit
}

// NewStore creates an empty scheduling store.
func NewStore() *Store {
	return &Store{
		tasks:        make(map[string]Task),
		pendingEdits: make(map[string]*PendingEdit),
	}
}

// MergeServerSnapshot folds a full server snapshot into the store. Tasks
// without a pending edit are replaced wholesale (server is ground truth).
// For a task with an in-flight edit the incoming value is parked on the edit
// and the optimistic value stays visible, so a refresh tick can never snap a
// dragged task back mid-submit. Tasks absent from the snapshot are dropped
// unless an edit is still resolving them.
func (s *Store) MergeServerSnapshot(orders []Order) {
	incoming := FlattenOrders(orders)

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(incoming))
	for _, t := range incoming {
		seen[t.ID] = true
		if edit, ok := s.pendingEdits[t.ID]; ok {
			parked := t
			edit.ServerSeen = &parked
			continue
		}
		s.tasks[t.ID] = t
	}

	for id := range s.tasks {
		if !seen[id] && s.pendingEdits[id] == nil {
			delete(s.tasks, id)
		}
	}
}

// ApplyOptimistic snapshots the task, records a pending edit, and mutates the
// visible task to the proposed placement. ManuallyAdjusted is not touched
// until the backend confirms. Fails with ErrEditInProgress if an edit is
// already resolving for this task.
func (s *Store) ApplyOptimistic(taskID string, p Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pendingEdits[taskID]; ok {
		return ErrEditInProgress
	}
	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}

	s.pendingEdits[taskID] = &PendingEdit{
		TaskID:      taskID,
		SubmittedAt: time.Now(),
		Proposed:    p,
		Previous:    t,
	}

	t.WorkstationID = p.WorkstationID
	t.StartTime = p.StartTime.Truncate(time.Minute)
	t.DurationMinutes = p.DurationMinutes
	s.tasks[taskID] = t
	return nil
}

// ConfirmEdit resolves a pending edit with the server's authoritative task.
// The server may have adjusted fields the proposal did not anticipate; its
// value replaces the optimistic one entirely.
func (s *Store) ConfirmEdit(taskID string, serverTask Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pendingEdits[taskID]; !ok {
		return ErrNoPendingEdit
	}
	delete(s.pendingEdits, taskID)

	serverTask.StartTime = serverTask.StartTime.Truncate(time.Minute)
	s.tasks[taskID] = serverTask
	return nil
}

// RollbackEdit resolves a pending edit by restoring the exact snapshot taken
// at ApplyOptimistic time. No partial restoration.
func (s *Store) RollbackEdit(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	edit, ok := s.pendingEdits[taskID]
	if !ok {
		return ErrNoPendingEdit
	}
	delete(s.pendingEdits, taskID)
	s.tasks[taskID] = edit.Previous
	return nil
}

// Remove drops a task and any pending edit for it. Used when the backend
// reports the task no longer exists.
func (s *Store) Remove(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	delete(s.pendingEdits, taskID)
}

// Task returns the current visible value of a task.
func (s *Store) Task(taskID string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	return t, ok
}

// PendingEdit returns a copy of the pending edit for a task, if any.
func (s *Store) PendingEdit(taskID string) (PendingEdit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.pendingEdits[taskID]; ok {
		return *e, true
	}
	return PendingEdit{}, false
}

// Len returns the number of tasks currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// TasksForDisplay returns the normalized task list annotated with conflict
// flags, sorted by workstation, start time, task ID. This is the single read
// path the rendering side uses.
func (s *Store) TasksForDisplay() []TaskView {
	s.mu.RLock()
	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	pending := make(map[string]bool, len(s.pendingEdits))
	for id := range s.pendingEdits {
		pending[id] = true
	}
	s.mu.RUnlock()

	conflicted := ConflictingIDs(DetectConflicts(tasks))

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, TaskView{
			Task:     t,
			EndTime:  t.End(),
			Conflict: conflicted[t.ID],
			Pending:  pending[t.ID],
		})
	}
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.WorkstationID != b.WorkstationID {
			return a.WorkstationID < b.WorkstationID
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
	return views
}

// Conflicts recomputes conflict pairs over the current visible task set.
func (s *Store) Conflicts() []ConflictPair {
	s.mu.RLock()
	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()
	return DetectConflicts(tasks)
}
