package main

import (
	"fmt"
	"time"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/repositories"

	"github.com/spf13/cobra"
)

// sampleEvents builds the catalog used for local checkout testing
func sampleEvents(now time.Time) []models.EventCreateRequest {
	return []models.EventCreateRequest{
		{Title: "Go Systems Workshop", Price: 4500, Status: models.StatusPublished, StartDate: now.AddDate(0, 0, 14)},
		{Title: "Postgres Internals Evening", Price: 2000, Status: models.StatusPublished, StartDate: now.AddDate(0, 0, 21)},
		{Title: "Community Hack Night", Price: 0, Status: models.StatusPublished, StartDate: now.AddDate(0, 0, 7)},
		{Title: "Payments Engineering Summit", Price: 12000, Status: models.StatusPublished, StartDate: now.AddDate(0, 1, 0)},
		{Title: "Unannounced Keynote", Price: 3000, Status: models.StatusDraft, StartDate: now.AddDate(0, 2, 0)},
	}
}

func seedEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-events",
		Short: "Insert a sample event catalog for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repositories.NewEventRepository(db.DB)
			for _, req := range sampleEvents(time.Now()) {
				if err := req.Validate(); err != nil {
					return err
				}
				event, err := repo.Create(cmd.Context(), &req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created event %d: %s (%s, %.2f)\n", event.ID, event.Title, event.Status, event.PriceInCurrency())
			}
			return nil
		},
	}
	return cmd
}
