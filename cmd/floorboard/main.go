// Package main provides the floorboard CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simal/floorboard/internal/audit"
	"github.com/simal/floorboard/internal/config"
	"github.com/simal/floorboard/internal/logging"
	"github.com/simal/floorboard/internal/simal"
)

var (
	version = "0.1.0"

	pretty     = true
	auditStore *audit.Store
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "floorboard",
		Short: "Production-floor scheduling workbench",
		Long: `Floorboard: a planner's workbench for the Simal scheduler.

It shows the scheduled tasks per workstation, flags conflicting
placements, and lets you propose new start times. The backend
scheduler stays the authority: every move here is a proposal it
can accept, adjust, or reject.

Set SIMAL_API_URL and SIMAL_USER_ID before use.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			pretty = term.IsTerminal(int(os.Stdout.Fd()))
			logging.SetLevel(logging.ParseLevel(config.Get().LogLevel))

			// The audit trail is best-effort: a broken local db never blocks
			// scheduling work.
			store, err := audit.NewStore(config.GetPaths().Data)
			if err != nil {
				logging.New("main").Warn("audit_unavailable", nil, err)
				return
			}
			auditStore = store
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if auditStore != nil {
				auditStore.Close()
			}
		},
	}

	rootCmd.AddCommand(
		ordersCmd(),
		conflictsCmd(),
		rescheduleCmd(),
		watchCmd(),
		boardCmd(),
		auditCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newClient builds the backend client from the environment. retries enables
// bounded backoff on the read endpoints, for one-shot commands only.
func newClient(retries bool) *simal.Client {
	env := config.Get()
	c := simal.New(env.APIURL, env.OperatorID)
	if retries {
		c = c.WithGetRetries(3)
	}
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the floorboard version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("floorboard", version)
		},
	}
}
