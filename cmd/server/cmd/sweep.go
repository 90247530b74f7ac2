package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sweepCmd runs one refresh for cron-style deployments where serve runs
// without a sweep interval.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Materialize every active rule and mark overdue events",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, engine, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		created, overdue, err := engine.Scheduler.RefreshAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d events, marked %d overdue\n", created, overdue)
		return nil
	},
}
