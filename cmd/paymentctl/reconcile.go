package main

import (
	"fmt"
	"time"

	"event-registration-platform/internal/app"
	"event-registration-platform/internal/services"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair payments whose registrations were never confirmed",
		Long: `Find successful payments whose order is still awaiting confirmation, and
refunded payments whose order is still confirmed, and re-run the
registration side. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewServices(cfg, db.DB, nil)
			start := time.Now()
			result, err := svc.Reconciler.ReconcileOutstanding(cmd.Context(), limit)
			if result != nil {
				printSweep(cmd, result, time.Since(start))
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum payments to repair per category")
	return cmd
}

func printSweep(cmd *cobra.Command, result *services.SweepResult, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Reconciled payments:   %d\n", result.Reconciled)
	fmt.Fprintf(out, "Registrations created: %d\n", result.Registrations)
	fmt.Fprintf(out, "Refunds settled:       %d\n", result.RefundsSettled)
	fmt.Fprintf(out, "Failed:                %d\n", result.Failed)
	fmt.Fprintf(out, "Took %s\n", elapsed.Round(time.Millisecond))
}
