package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/render"
	"github.com/simal/floorboard/internal/schedule"
)

func ordersCmd() *cobra.Command {
	var production bool

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders on the schedule",
		Long: `Fetch orders from the scheduler and print their tasks per workstation.

Examples:
  floorboard orders               # scheduled orders
  floorboard orders --production  # production orders endpoint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(true)
			ctx := cmd.Context()

			var (
				orders []schedule.Order
				err    error
			)
			if production {
				orders, err = client.ProductionOrders(ctx)
			} else {
				orders, err = client.ScheduledOrders(ctx)
			}
			if err != nil {
				return fmt.Errorf("fetching orders: %w", err)
			}

			store := schedule.NewStore()
			store.MergeServerSnapshot(orders)
			fmt.Print(render.New(pretty).Tasks(store.TasksForDisplay()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&production, "production", false, "query the production-orders endpoint")
	return cmd
}
