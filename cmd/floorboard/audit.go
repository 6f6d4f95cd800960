package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/render"
)

func auditCmd() *cobra.Command {
	var (
		taskID  string
		outcome string
		since   time.Duration
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local reschedule audit trail",
		Long: `Query the reschedule attempts recorded on this machine, newest first.

Examples:
  floorboard audit                       # recent attempts
  floorboard audit --task T-1042         # one task's history
  floorboard audit --outcome rejected    # rejections only
  floorboard audit --since 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if auditStore == nil {
				return fmt.Errorf("audit trail unavailable")
			}

			filter := audit.QueryFilter{
				TaskID:  taskID,
				Outcome: audit.Outcome(outcome),
				Limit:   limit,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			events, err := auditStore.Query(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("querying audit trail: %w", err)
			}
			fmt.Print(render.New(pretty).AuditEvents(events))
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "filter by task id")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome (confirmed, rejected, rolled_back, not_found)")
	cmd.Flags().DurationVar(&since, "since", 0, "only attempts within this window (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to show")
	return cmd
}
