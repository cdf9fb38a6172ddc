package main

import (
	"fmt"

	"event-registration-platform/internal/config"
	"event-registration-platform/internal/database"
	"event-registration-platform/internal/outbox"

	"github.com/spf13/cobra"
)

func relayCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "relay-once",
		Short: "Publish one batch of pending outbox notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := database.NewPool(cmd.Context(), cfg.Database.DSN(), 2)
			if err != nil {
				return err
			}
			defer pool.Close()

			publisher, err := outbox.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
			if err != nil {
				return err
			}
			defer publisher.Close()

			sent, err := outbox.NewRelay(outbox.NewPgStore(pool, cfg.Outbox.MaxAttempts), publisher, cfg.Outbox.PollInterval, batch).ProcessBatch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d messages\n", sent)
			return nil
		},
	}

	cmd.Flags().IntVarP(&batch, "batch", "n", 50, "maximum messages to publish")
	return cmd
}
