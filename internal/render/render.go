// Package render provides output formatting for the workbench's one-shot
// commands: order tables, conflict reports, and the audit trail.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/schedule"
)

const timeFmt = "Mon 15:04"

// Renderer handles output formatting. Pretty mode adds color and rules for
// interactive terminals; plain mode stays pipe-friendly.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Tasks formats the display list grouped by workstation.
func (r *Renderer) Tasks(views []schedule.TaskView) string {
	if len(views) == 0 {
		return "No scheduled tasks"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Scheduled Tasks\n"))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}

	station := ""
	for _, v := range views {
		if v.WorkstationID != station {
			station = v.WorkstationID
			name := v.WorkstationName
			if name == "" {
				name = v.WorkstationID
			}
			if r.pretty {
				fmt.Fprintf(&sb, "%s\n", color.HiWhiteString(name))
			} else {
				fmt.Fprintf(&sb, "%s\n", name)
			}
		}
		r.formatTask(&sb, v)
	}
	return sb.String()
}

func (r *Renderer) formatTask(sb *strings.Builder, v schedule.TaskView) {
	window := fmt.Sprintf("%s – %s", v.StartTime.Format(timeFmt), v.EndTime.Format("15:04"))

	label := v.ItemName
	if label == "" {
		label = v.TaskType
	}
	if label == "" {
		label = v.ID
	}

	marks := ""
	if v.ManuallyAdjusted {
		marks += " *"
	}
	if v.Pending {
		marks += " (submitting)"
	}

	if !r.pretty {
		conflict := ""
		if v.Conflict {
			conflict = " CONFLICT"
		}
		fmt.Fprintf(sb, "  %-12s %s %s [%s]%s%s\n", v.ID, window, label, v.Status, marks, conflict)
		return
	}

	flag := color.GreenString("✓")
	if v.Conflict {
		flag = color.RedString("✗")
	}
	fmt.Fprintf(sb, "  %s %s %s %s%s\n",
		flag, color.HiBlackString(window), label, statusString(v.Status), marks)
}

func statusString(s schedule.Status) string {
	switch s {
	case schedule.StatusInProgress:
		return color.YellowString(string(s))
	case schedule.StatusCompleted:
		return color.GreenString(string(s))
	case schedule.StatusCancelled:
		return color.HiBlackString(string(s))
	default:
		return string(s)
	}
}

// Conflicts formats detected conflict pairs with the tasks involved.
func (r *Renderer) Conflicts(pairs []schedule.ConflictPair, views []schedule.TaskView) string {
	if len(pairs) == 0 {
		return "No conflicts detected"
	}

	byID := make(map[string]schedule.TaskView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.RedString("Workstation Conflicts\n"))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}

	for _, p := range pairs {
		a, b := byID[p.A], byID[p.B]
		fmt.Fprintf(&sb, "%s: %s (%s–%s) overlaps %s (%s–%s)\n",
			a.WorkstationID,
			p.A, a.StartTime.Format(timeFmt), a.EndTime.Format("15:04"),
			p.B, b.StartTime.Format(timeFmt), b.EndTime.Format("15:04"))
	}
	fmt.Fprintf(&sb, "%d conflicting pair(s)\n", len(pairs))
	return sb.String()
}

// AuditEvents formats the local reschedule trail, newest first.
func (r *Renderer) AuditEvents(events []audit.Event) string {
	if len(events) == 0 {
		return "No reschedule attempts recorded"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Reschedule History\n"))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}

	for _, e := range events {
		r.formatAudit(&sb, e)
	}
	return sb.String()
}

func (r *Renderer) formatAudit(sb *strings.Builder, e audit.Event) {
	when := e.SubmittedAt.Local().Format("2006-01-02 15:04")
	target := fmt.Sprintf("%s → %s %s", e.TaskID, e.WorkstationID, e.ProposedStart.Local().Format(timeFmt))

	if !r.pretty {
		fmt.Fprintf(sb, "[%s] %-11s %s (%s)", when, e.Outcome, target, e.Origin)
		if e.ErrorMessage != "" {
			fmt.Fprintf(sb, ": %s", e.ErrorMessage)
		}
		sb.WriteString("\n")
		return
	}

	mark := color.GreenString("✓")
	switch e.Outcome {
	case audit.OutcomeRejected, audit.OutcomeRolledBack:
		mark = color.RedString("✗")
	case audit.OutcomeNotFound:
		mark = color.YellowString("?")
	}
	fmt.Fprintf(sb, "%s %s %s (%s)", mark, color.HiBlackString(when), target, e.Origin)
	if e.ErrorMessage != "" {
		fmt.Fprintf(sb, ": %s", color.RedString(e.ErrorMessage))
	}
	sb.WriteString("\n")
}
