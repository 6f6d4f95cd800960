package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/render"
	"github.com/simal/floorboard/internal/schedule"
)

func conflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Report overlapping tasks per workstation",
		Long: `Fetch the current schedule and report every pair of active tasks
that overlap on the same workstation. Completed and cancelled tasks
never count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(true)
			orders, err := client.ScheduledOrders(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching orders: %w", err)
			}

			store := schedule.NewStore()
			store.MergeServerSnapshot(orders)
			fmt.Print(render.New(pretty).Conflicts(store.Conflicts(), store.TasksForDisplay()))
			return nil
		},
	}
}
