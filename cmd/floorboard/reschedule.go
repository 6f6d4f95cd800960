package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/config"
	"github.com/simal/floorboard/internal/coordinator"
	"github.com/simal/floorboard/internal/schedule"
)

const startLayout = "2006-01-02 15:04"

func rescheduleCmd() *cobra.Command {
	var (
		workstation string
		start       string
		duration    int
		reason      string
	)

	cmd := &cobra.Command{
		Use:   "reschedule <task-id>",
		Short: "Propose a new placement for a task",
		Long: `Submit a reschedule proposal for a task. The backend scheduler
remains the authority: it may accept, adjust, or reject the proposal.
Every attempt is recorded in the local audit trail.

Omitted flags keep the task's current value.

Examples:
  floorboard reschedule T-1042 --start "2026-09-01 08:30"
  floorboard reschedule T-1042 --workstation WS-3 --duration 90 --reason "line 2 down"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ctx := cmd.Context()

			client := newClient(true)
			orders, err := client.ScheduledOrders(ctx)
			if err != nil {
				return fmt.Errorf("fetching orders: %w", err)
			}

			store := schedule.NewStore()
			store.MergeServerSnapshot(orders)

			task, ok := store.Task(taskID)
			if !ok {
				return fmt.Errorf("task %s is not on the schedule", taskID)
			}

			p := schedule.Proposal{
				WorkstationID:   task.WorkstationID,
				StartTime:       task.StartTime,
				DurationMinutes: task.DurationMinutes,
				Reason:          reason,
			}
			if workstation != "" {
				p.WorkstationID = workstation
			}
			if start != "" {
				t, err := time.ParseInLocation(startLayout, start, time.Local)
				if err != nil {
					return fmt.Errorf("parsing --start (want %q): %w", startLayout, err)
				}
				p.StartTime = t
			}
			if cmd.Flags().Changed("duration") {
				p.DurationMinutes = duration
			}

			var rec coordinator.Recorder
			if auditStore != nil {
				rec = auditStore
			}
			coord := coordinator.New(store, client, rec, config.Get().OperatorID)
			coord.OnNotice = func(n coordinator.Notice) {
				fmt.Printf("[%s] %s: %s\n", n.Level, n.TaskID, n.Message)
			}

			if err := coord.Reschedule(ctx, taskID, p, audit.OriginCLI); err != nil {
				return err
			}

			updated, _ := store.Task(taskID)
			fmt.Printf("Task %s now at %s on %s (%d min)\n",
				updated.ID, updated.StartTime.Format(startLayout),
				updated.WorkstationID, updated.DurationMinutes)
			return nil
		},
	}

	cmd.Flags().StringVar(&workstation, "workstation", "", "target workstation id")
	cmd.Flags().StringVar(&start, "start", "", "new start time, \""+startLayout+"\" local")
	cmd.Flags().IntVar(&duration, "duration", 0, "new duration in minutes")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the change")
	return cmd
}
