package main

import (
	"fmt"

	"event-registration-platform/internal/app"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"

	"github.com/spf13/cobra"
)

func overrideCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "override [merchant-transaction-id] [success|refunded]",
		Short: "Force a payment outcome after manual verification",
		Long: `Move a payment to success or refunded. The change goes through the same
conditional transition as gateway callbacks, so it cannot overwrite a
concurrent outcome.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewServices(cfg, db.DB, nil)
			result, err := svc.Machine.AdminOverride(cmd.Context(), args[0], models.PaymentStatus(args[1]))

			details := map[string]interface{}{"to": args[1], "reason": reason, "source": "paymentctl"}
			if err != nil {
				details["error"] = err.Error()
			}
			_ = svc.Audit.LogAction(cmd.Context(), services.AuditEntry{
				Action:     models.AuditActionPaymentOverride,
				TargetType: models.AuditTargetPayment,
				TargetID:   args[0],
				Details:    details,
				UserAgent:  "paymentctl/" + Version,
			})
			if result != nil {
				if result.Changed {
					fmt.Fprintf(cmd.OutOrStdout(), "Payment %s: %s -> %s\n", args[0], result.From, result.To)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Payment %s already %s, nothing to do\n", args[0], result.To)
				}
				if result.Reconciliation != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %d registrations\n", len(result.Reconciliation.Confirmed))
				}
				if result.Refund != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d registrations\n", len(result.Refund.Cancelled))
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the outcome is being forced (recorded in the audit log)")
	return cmd
}
