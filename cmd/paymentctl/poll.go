package main

import (
	"fmt"
	"time"

	"event-registration-platform/internal/app"

	"github.com/spf13/cobra"
)

func pollCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Ask the gateway about payments still pending",
		Long: `Check the gateway status of pending payments older than --older-than and
apply any final outcome through the same conditional transition the
webhook uses.

Examples:
  paymentctl poll
  paymentctl poll --older-than 30m --limit 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewServices(cfg, db.DB, nil)
			result, err := svc.Poller.PollPending(cmd.Context(), olderThan, limit)
			if result != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Checked:       %d\n", result.Checked)
				fmt.Fprintf(out, "Settled:       %d\n", result.Settled)
				fmt.Fprintf(out, "Still pending: %d\n", result.Pending)
				fmt.Fprintf(out, "Errors:        %d\n", result.Errors)
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "only poll payments created before this age")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum payments to poll")
	return cmd
}
