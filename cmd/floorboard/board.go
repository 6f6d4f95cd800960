package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/config"
	"github.com/simal/floorboard/internal/coordinator"
	"github.com/simal/floorboard/internal/poll"
	"github.com/simal/floorboard/internal/schedule"
	"github.com/simal/floorboard/internal/timeline"
	"github.com/simal/floorboard/internal/tui"
)

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Interactive planning board",
		Long: `Open the interactive board: tasks grouped by workstation, conflicts
highlighted, with drag (15-minute steps) and form edits submitted to
the scheduler. The schedule refreshes in the background; your
in-flight edits always win over a stale refresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.Get()
			client := newClient(false)
			store := schedule.NewStore()

			var rec coordinator.Recorder
			if auditStore != nil {
				rec = auditStore
			}
			coord := coordinator.New(store, client, rec, env.OperatorID)

			// The refresher and the program reference each other, so the
			// refresher is built after the program below.
			var refresher *poll.Refresher

			cfg := timeline.Config{
				Editable:        true,
				RefreshInterval: env.PollInterval,
				ShowCurrentTime: true,
				OnRefresh: func(ctx context.Context) {
					refresher.RefreshNow(ctx)
				},
			}
			submit := func(ctx context.Context, taskID string, p schedule.Proposal, origin string) error {
				return coord.Reschedule(ctx, taskID, p, audit.Origin(origin))
			}
			model := tui.New(cfg, coord, submit, store.TasksForDisplay)

			p := tea.NewProgram(model, tea.WithAltScreen())

			coord.OnNotice = func(n coordinator.Notice) {
				p.Send(tui.NoticeMsg(n))
			}
			refresher = poll.New(env.PollInterval, client.ScheduledOrders,
				func(orders []schedule.Order) {
					store.MergeServerSnapshot(orders)
					p.Send(tui.TasksMsg(store.TasksForDisplay()))
				},
				func(err error) {
					p.Send(tui.NoticeMsg{Level: coordinator.LevelError,
						Message: fmt.Sprintf("refresh failed: %v", err)})
				})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := refresher.Start(ctx); err != nil {
				return err
			}
			defer refresher.Stop()

			_, err := p.Run()
			return err
		},
	}
}
