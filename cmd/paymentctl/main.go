package main

import (
	"fmt"
	"os"

	"event-registration-platform/internal/app"
	"event-registration-platform/internal/config"
	"event-registration-platform/internal/database"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Operator tooling for orders, payments and registrations",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(overrideCmd())
	rootCmd.AddCommand(relayCmd())
	rootCmd.AddCommand(hashAdminKeyCmd())
	rootCmd.AddCommand(seedEventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect loads configuration and opens the database
func connect() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}
