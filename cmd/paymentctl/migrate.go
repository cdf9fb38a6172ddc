package main

import (
	"fmt"

	"event-registration-platform/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the embedded SQL migrations in version order. Each migration runs in
its own transaction and is recorded in schema_migrations.

Examples:
  paymentctl migrate
  paymentctl migrate --status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db.DB)
			if statusOnly {
				return migrator.GetMigrationStatus()
			}

			if err := migrator.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All migrations completed successfully!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "show migration status without applying")
	return cmd
}
