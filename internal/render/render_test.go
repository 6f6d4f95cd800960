package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/schedule"
)

func view(id, station string, hhmm string, mins int, conflict bool) schedule.TaskView {
	start, _ := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	t := schedule.Task{
		ID:              id,
		WorkstationID:   station,
		StartTime:       start,
		DurationMinutes: mins,
		Status:          schedule.StatusScheduled,
	}
	return schedule.TaskView{Task: t, EndTime: t.End(), Conflict: conflict}
}

func TestTasks_Plain(t *testing.T) {
	r := New(false)
	out := r.Tasks([]schedule.TaskView{
		view("T1", "W1", "09:00", 60, true),
		view("T2", "W2", "10:00", 30, false),
	})

	assert.Contains(t, out, "W1")
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, "CONFLICT")
	assert.Contains(t, out, "W2")
	assert.Contains(t, out, "T2")
}

func TestTasks_Empty(t *testing.T) {
	assert.Equal(t, "No scheduled tasks", New(true).Tasks(nil))
}

func TestConflicts(t *testing.T) {
	views := []schedule.TaskView{
		view("T1", "W1", "09:00", 60, true),
		view("T2", "W1", "09:30", 60, true),
	}
	pairs := []schedule.ConflictPair{{A: "T1", B: "T2"}}

	out := New(false).Conflicts(pairs, views)
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, "T2")
	assert.Contains(t, out, "1 conflicting pair(s)")

	assert.Equal(t, "No conflicts detected", New(false).Conflicts(nil, views))
}

func TestAuditEvents(t *testing.T) {
	e := audit.NewEvent("T1")
	e.WorkstationID = "W1"
	e.ProposedStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e.Origin = audit.OriginDrag
	e.Resolve(audit.OutcomeRejected, "workstation occupied")

	out := New(false).AuditEvents([]audit.Event{*e})
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "workstation occupied")
	assert.Contains(t, out, "T1")

	assert.Equal(t, "No reschedule attempts recorded", New(false).AuditEvents(nil))
}
