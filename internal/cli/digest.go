package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"digesttracker/internal/digest"
	"digesttracker/internal/model"
	"digesttracker/internal/publish"
)

func newGenerateCmd(app *App) *cobra.Command {
	var (
		days     int
		fromDate string
		toDate   string
		style    string
	)
	cmd := &cobra.Command{
		Use:   "generate <topic> [frequency]",
		Short: "Generate a digest for a topic",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := digest.Request{
				Topic: args[0],
				Days:  days,
				Style: style,
			}
			if len(args) > 1 {
				req.Frequency = args[1]
			}
			if fromDate != "" {
				t, err := dateparse.ParseAny(fromDate)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				req.Since = t.UTC()
			}
			if toDate != "" {
				t, err := dateparse.ParseAny(toDate)
				if err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
				req.Until = t.UTC()
			}

			result, err := app.Generator.Generate(cmd.Context(), req)
			if err != nil {
				switch {
				case errors.Is(err, digest.ErrTopicNotFound):
					app.printf("✗ Topic not found: %s", args[0])
					return nil
				case errors.Is(err, digest.ErrNoArticles):
					app.printf("No articles found for %s in this period", args[0])
					return nil
				}
				return err
			}

			app.printf("")
			app.printf("✓ Digest generated!")
			app.printf("  ID: %s", result.Digest.ID)
			app.printf("  Period: %s", result.Period)
			app.printf("  Articles: %d", result.Digest.ArticleCount)
			app.printf("")
			app.printf("--- CONTENT ---")
			app.printf("")
			app.printf("%s", result.Digest.Content)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	cmd.Flags().StringVar(&fromDate, "from", "", "Start date")
	cmd.Flags().StringVar(&toDate, "to", "", "End date")
	cmd.Flags().StringVar(&style, "style", "", "Output style (chat, markdown)")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <topic>",
		Short: "Show digest history for a topic",
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

			digests, err := app.Digests.ForTopic(ctx, topic.ID, limit)
			if err != nil {
				return err
			}
			if len(digests) == 0 {
				app.printf("No digests found for topic: %s", args[0])
				return nil
			}

			app.printf("Digest history for %s:", args[0])
			for _, d := range digests {
				status := "✗"
				if d.Published {
					status = "✓"
				}
				app.printf("  %s %s — %s to %s (%d articles)",
					status,
					d.Frequency,
					d.PeriodStart.Format("2006-01-02"),
					d.PeriodEnd.Format("2006-01-02"),
					d.ArticleCount,
				)
				app.printf("      ID: %s", d.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of digests to show")
	return cmd
}

func newViewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view <digest-id>",
		Short: "View a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Digests.ByID(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("Digest not found: %s", args[0])
					return nil
				}
				return err
			}

			app.printf("Digest: %s", d.ID)
			app.printf("Frequency: %s", d.Frequency)
			app.printf("Period: %s to %s", d.PeriodStart.Format("2006-01-02"), d.PeriodEnd.Format("2006-01-02"))
			app.printf("Articles: %d", d.ArticleCount)
			app.printf("")
			app.printf("--- CONTENT ---")
			app.printf("")
			app.printf("%s", d.Content)
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <digest-id>",
		Short: "Export a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Digests.ByID(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("Digest not found: %s", args[0])
					return nil
				}
				return err
			}

			if output == "" {
				app.printf("%s", d.Content)
				return nil
			}
			if err := os.WriteFile(output, []byte(d.Content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			app.printf("✓ Exported to %s", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output file path")
	return cmd
}

func newPublishCmd(app *App) *cobra.Command {
	var (
		blogName string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "publish <digest-id>",
		Short: "Publish a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.Publisher.PublishDigest(cmd.Context(), args[0], publish.Options{
				BlogName: blogName,
				DryRun:   dryRun,
			})
			if err != nil {
				switch {
				case errors.Is(err, model.ErrNotFound):
					app.printf("Digest not found: %s", args[0])
					return nil
				case errors.Is(err, publish.ErrNoBlog):
					app.printf("No blog specified or linked to topic")
					return nil
				}
				return fmt.Errorf("publish: %w", err)
			}

			if outcome.DryRun {
				app.printf("Would publish digest %s to blog %s", args[0], outcome.Blog.Name)
				app.printf("Blog type: %s", outcome.Blog.Type)
				return nil
			}
			app.printf("✓ Published to: %s", outcome.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&blogName, "blog", "", "Blog name (uses linked blog if not specified)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be published")
	return cmd
}
