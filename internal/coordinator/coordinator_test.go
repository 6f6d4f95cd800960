package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/schedule"
	"github.com/simal/floorboard/internal/simal"
	"github.com/simal/floorboard/internal/timeline"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    int
	lastProp schedule.Proposal
	respond  func(taskID string, p schedule.Proposal) (schedule.Task, error)
	block    chan struct{} // when set, Reschedule waits on it
}

func (f *fakeBackend) Reschedule(ctx context.Context, taskID string, p schedule.Proposal) (schedule.Task, error) {
	f.mu.Lock()
	f.calls++
	f.lastProp = p
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.respond(taskID, p)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeRecorder) Save(ctx context.Context, e *audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeRecorder) last(t *testing.T) audit.Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

func seededStore() *schedule.Store {
	s := schedule.NewStore()
	s.MergeServerSnapshot([]schedule.Order{{ID: "O1", Status: schedule.StatusScheduled, Tasks: []schedule.Task{
		{ID: "T1", WorkstationID: "W1", StartTime: at("09:00"), DurationMinutes: 60},
	}}})
	return s
}

func accept(taskID string, p schedule.Proposal) (schedule.Task, error) {
	return schedule.Task{
		ID:              taskID,
		WorkstationID:   p.WorkstationID,
		StartTime:       p.StartTime,
		DurationMinutes: p.DurationMinutes,
		Status:          schedule.StatusScheduled,
		ManuallyAdjusted: true,
	}, nil
}

func TestReschedule_DragSuccess(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: accept}
	rec := &fakeRecorder{}
	var confirmed []schedule.Task

	c := New(store, backend, rec, "planner-3")
	c.OnConfirmed = func(task schedule.Task) { confirmed = append(confirmed, task) }

	err := c.HandleDragEnd(context.Background(), timeline.TaskDragged{TaskID: "T1", ProposedStart: at("10:00")})
	require.NoError(t, err)

	got, _ := store.Task("T1")
	assert.Equal(t, at("10:00"), got.StartTime)
	assert.Equal(t, at("11:00"), got.End())
	assert.True(t, got.ManuallyAdjusted)
	assert.Equal(t, StateIdle, c.State("T1"))

	// Drag keeps the rest of the record and supplies the drag default reason.
	assert.Equal(t, "W1", backend.lastProp.WorkstationID)
	assert.Equal(t, 60, backend.lastProp.DurationMinutes)
	assert.Equal(t, defaultDragReason, backend.lastProp.Reason)

	require.Len(t, confirmed, 1)
	ev := rec.last(t)
	assert.Equal(t, audit.OutcomeConfirmed, ev.Outcome)
	assert.Equal(t, audit.OriginDrag, ev.Origin)
	assert.Equal(t, "planner-3", ev.Operator)
}

func TestReschedule_ValidationNeverReachesBackend(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: accept}
	c := New(store, backend, nil, "planner-3")

	err := c.Reschedule(context.Background(), "T1", schedule.Proposal{StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginForm)
	assert.True(t, schedule.IsValidation(err), "want validation error, got %v", err)
	assert.Equal(t, 0, backend.callCount())

	// Store untouched.
	got, _ := store.Task("T1")
	assert.Equal(t, at("09:00"), got.StartTime)
	_, pending := store.PendingEdit("T1")
	assert.False(t, pending)
}

func TestReschedule_RejectedEditRollsBackAndSurfacesBackendMessage(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: func(string, schedule.Proposal) (schedule.Task, error) {
		return schedule.Task{}, &simal.ConflictRejectedError{Message: "workstation occupied"}
	}}
	rec := &fakeRecorder{}
	c := New(store, backend, rec, "planner-3")

	var notices []Notice
	c.OnNotice = func(n Notice) { notices = append(notices, n) }
	var failed bool
	c.OnFailed = func(string, error) { failed = true }

	err := c.Reschedule(context.Background(), "T1",
		schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginForm)
	require.Error(t, err)

	got, _ := store.Task("T1")
	assert.Equal(t, at("09:00"), got.StartTime, "rollback must restore the pre-edit start")
	assert.True(t, failed)

	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Equal(t, "workstation occupied", notices[0].Message, "backend reason surfaced verbatim")
	assert.Equal(t, audit.OutcomeRejected, rec.last(t).Outcome)
}

func TestReschedule_NetworkFailureRollsBack(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: func(string, schedule.Proposal) (schedule.Task, error) {
		return schedule.Task{}, &simal.NetworkError{Op: "PUT /simal/tasks/T1/reschedule", Err: context.DeadlineExceeded}
	}}
	rec := &fakeRecorder{}
	c := New(store, backend, rec, "planner-3")

	err := c.Reschedule(context.Background(), "T1",
		schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginCLI)
	require.Error(t, err)

	got, _ := store.Task("T1")
	assert.Equal(t, at("09:00"), got.StartTime)
	assert.Equal(t, StateIdle, c.State("T1"), "task editable again after rollback")
	assert.Equal(t, audit.OutcomeRolledBack, rec.last(t).Outcome)
}

func TestReschedule_NotFoundRemovesTask(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: func(taskID string, _ schedule.Proposal) (schedule.Task, error) {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}}
	rec := &fakeRecorder{}
	c := New(store, backend, rec, "planner-3")

	var notices []Notice
	c.OnNotice = func(n Notice) { notices = append(notices, n) }

	err := c.Reschedule(context.Background(), "T1",
		schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginForm)
	require.Error(t, err)

	_, ok := store.Task("T1")
	assert.False(t, ok, "task gone server-side is removed locally")

	require.Len(t, notices, 1)
	assert.Equal(t, LevelInfo, notices[0].Level, "not-found is informational, not alarming")
	assert.Equal(t, audit.OutcomeNotFound, rec.last(t).Outcome)
}

func TestReschedule_ReentrantEditRejected(t *testing.T) {
	store := seededStore()
	block := make(chan struct{})
	backend := &fakeBackend{respond: accept, block: block}
	c := New(store, backend, nil, "planner-3")

	p := schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}

	done := make(chan error, 1)
	go func() { done <- c.Reschedule(context.Background(), "T1", p, audit.OriginForm) }()

	// Wait until the first submit is in flight.
	require.Eventually(t, func() bool { return c.State("T1") == StatePendingSubmit },
		2*time.Second, 5*time.Millisecond)

	before, _ := store.Task("T1")
	err := c.Reschedule(context.Background(), "T1",
		schedule.Proposal{WorkstationID: "W2", StartTime: at("12:00"), DurationMinutes: 30}, audit.OriginForm)
	assert.ErrorIs(t, err, schedule.ErrEditInProgress)

	after, _ := store.Task("T1")
	assert.Equal(t, before, after, "rejected re-entrant edit must not mutate the store")

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.callCount())
}

func TestReschedule_InFlightEditSurvivesStalePoll(t *testing.T) {
	store := seededStore()
	block := make(chan struct{})
	backend := &fakeBackend{respond: accept, block: block}
	c := New(store, backend, nil, "planner-3")

	done := make(chan error, 1)
	go func() {
		done <- c.Reschedule(context.Background(), "T1",
			schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginDrag)
	}()
	require.Eventually(t, func() bool { return c.State("T1") == StatePendingSubmit },
		2*time.Second, 5*time.Millisecond)

	// A poll tick lands mid-submit with the stale pre-edit placement.
	store.MergeServerSnapshot([]schedule.Order{{ID: "O1", Status: schedule.StatusScheduled, Tasks: []schedule.Task{
		{ID: "T1", WorkstationID: "W1", StartTime: at("09:00"), DurationMinutes: 60},
	}}})

	got, _ := store.Task("T1")
	assert.Equal(t, at("10:00"), got.StartTime, "edit must not snap back under a refresh tick")

	close(block)
	require.NoError(t, <-done)
	got, _ = store.Task("T1")
	assert.Equal(t, at("10:00"), got.StartTime)
}

func TestHandleTaskClick(t *testing.T) {
	store := seededStore()
	c := New(store, &fakeBackend{respond: accept}, nil, "planner-3")

	task, err := c.HandleTaskClick(timeline.TaskClicked{TaskID: "T1"})
	require.NoError(t, err)
	assert.Equal(t, "T1", task.ID)
	assert.Equal(t, StateIdle, c.State("T1"), "selection alone submits nothing")

	_, err = c.HandleTaskClick(timeline.TaskClicked{TaskID: "ghost"})
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
}

func TestReschedule_UnknownTask(t *testing.T) {
	store := seededStore()
	backend := &fakeBackend{respond: accept}
	c := New(store, backend, nil, "planner-3")

	err := c.Reschedule(context.Background(), "ghost",
		schedule.Proposal{WorkstationID: "W1", StartTime: at("10:00"), DurationMinutes: 60}, audit.OriginCLI)
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
	assert.Equal(t, 0, backend.callCount())
	assert.Equal(t, StateIdle, c.State("ghost"))
}
