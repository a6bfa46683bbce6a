package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"digesttracker/internal/model"
)

func newTopicCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}
	cmd.AddCommand(
		newTopicAddCmd(app),
		newTopicListCmd(app),
		newTopicRemoveCmd(app),
		newTopicInfoCmd(app),
	)
	return cmd
}

func newTopicAddCmd(app *App) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new topic to track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := app.Topics.Create(cmd.Context(), args[0], desc)
			if err != nil {
				return err
			}
			app.printf("✓ Topic added: %s (ID: %s)", topic.Name, topic.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "Topic description")
	return cmd
}

func newTopicListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			topics, err := app.Topics.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				app.printf("No topics found.")
				return nil
			}
			for _, t := range topics {
				line := "✓ " + t.Name
				if t.Description != "" {
					line += " — " + t.Description
				}
				app.printf("%s", line)
			}
			return nil
		},
	}
}

func newTopicRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a topic",
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
			if err := app.Topics.Delete(ctx, topic.ID); err != nil {
				return err
			}
			app.printf("✓ Topic removed: %s", args[0])
			return nil
		},
	}
}

func newTopicInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show topic details",
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

			sources, err := app.Sources.ForTopic(ctx, topic.ID)
			if err != nil {
				return err
			}
			digests, err := app.Digests.ForTopic(ctx, topic.ID, 5)
			if err != nil {
				return err
			}

			blogName := "None"
			blog, err := app.Blogs.ForTopic(ctx, topic.ID)
			switch {
			case err == nil:
				blogName = blog.Name
			case !errors.Is(err, model.ErrNotFound):
				return err
			}

			app.printf("Topic: %s", topic.Name)
			if topic.Description != "" {
				app.printf("Description: %s", topic.Description)
			}
			app.printf("")
			app.printf("Sources: %d", len(sources))
			for _, s := range sources {
				app.printf("  • %s: %s", s.Type, s.URL)
			}
			app.printf("")
			app.printf("Blog: %s", blogName)
			app.printf("")
			app.printf("Recent digests: %d", len(digests))
			for _, d := range digests {
				app.printf("  • %s — %s", d.Frequency, d.PeriodStart.Format("2006-01-02"))
			}
			return nil
		},
	}
}
