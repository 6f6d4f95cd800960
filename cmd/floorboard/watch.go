package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/config"
	"github.com/simal/floorboard/internal/poll"
	"github.com/simal/floorboard/internal/runtime"
	"github.com/simal/floorboard/internal/schedule"
)

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the schedule and report changes",
		Long: `Keep fetching the schedule at the poll interval and print a one-line
summary whenever the task set or the conflict count changes. Runs
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.Get()
			if interval == 0 {
				interval = env.PollInterval
			}

			client := newClient(false)
			store := schedule.NewStore()

			var lastTasks, lastConflicts int
			first := true

			refresher := poll.New(interval, client.ScheduledOrders,
				func(orders []schedule.Order) {
					store.MergeServerSnapshot(orders)
					tasks := store.Len()
					conflicts := len(store.Conflicts())
					if first || tasks != lastTasks || conflicts != lastConflicts {
						fmt.Printf("%s  %d tasks, %d conflicts\n",
							time.Now().Format("15:04:05"), tasks, conflicts)
						first = false
						lastTasks, lastConflicts = tasks, conflicts
					}
				},
				func(err error) {
					fmt.Printf("%s  refresh failed: %v\n", time.Now().Format("15:04:05"), err)
				})

			sm := runtime.NewShutdownManager(5 * time.Second)
			sm.RegisterSimple("poller", refresher.Stop)
			sm.ListenForSignals()

			if err := refresher.Start(sm.Context()); err != nil {
				return err
			}
			fmt.Printf("Watching %s every %s (ctrl-c to stop)\n", env.APIURL, interval)

			sm.WaitForShutdown()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from FLOORBOARD_POLL_INTERVAL)")
	return cmd
}
