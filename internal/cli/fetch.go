package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"digesttracker/internal/model"
)

func newFetchCmd(app *App) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "fetch <topic>",
		Short: "Fetch articles for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topic, err := app.Topics.ByName(ctx, args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Topic not found: %s", args[0])
					return nil
				}
				return err
			}

			since := time.Now().UTC().AddDate(0, 0, -days)
			report, err := app.Fetcher.FetchTopic(ctx, topic.ID, since)
			if err != nil {
				return err
			}
			if len(report.Results) == 0 {
				app.printf("No sources for topic: %s", args[0])
				return nil
			}

			for _, res := range report.Results {
				app.printf("Fetching from %s...", res.Source.URL)
				if res.Err != nil {
					app.printf("  Error: %v", res.Err)
					continue
				}
				app.printf("  Found %d articles", res.Found)
			}

			app.printf("")
			if report.Saved > 0 {
				app.printf("✓ Saved %d new articles", report.Saved)
			} else {
				app.printf("No new articles found")
			}
			return nil
		},
	}
	defaultDays := app.LookbackDays
	if defaultDays <= 0 {
		defaultDays = 7
	}
	cmd.Flags().IntVar(&days, "days", defaultDays, "Fetch articles from the last N days")
	return cmd
}
