package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"digesttracker/internal/model"
)

func newSourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage content sources",
	}
	cmd.AddCommand(
		newSourceAddCmd(app),
		newSourceListCmd(app),
		newSourceRemoveCmd(app),
	)
	return cmd
}

func newSourceAddCmd(app *App) *cobra.Command {
	var (
		sourceType string
		configJSON string
	)
	cmd := &cobra.Command{
		Use:   "add <topic> <url>",
		Short: "Add a source to a topic",
		Args:  cobra.ExactArgs(2),
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

			config, err := parseMetadataFlag(configJSON)
			if err != nil {
				return fmt.Errorf("parse --config: %w", err)
			}

			src, err := app.Sources.Create(ctx, model.Source{
				TopicID: topic.ID,
				URL:     args[1],
				Type:    sourceType,
				Config:  config,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Source added: %s (ID: %s)", src.URL, src.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceType, "type", model.SourceTypeRSS, "Source type (rss, web)")
	cmd.Flags().StringVar(&configJSON, "config", "", "JSON config for source")
	return cmd
}

func newSourceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <topic>",
		Short: "List sources for a topic",
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
			if len(sources) == 0 {
				app.printf("No sources found for topic: %s", args[0])
				return nil
			}

			app.printf("Sources for %s:", args[0])
			for _, s := range sources {
				lastFetched := "Never"
				if s.LastFetchedAt != nil {
					lastFetched = s.LastFetchedAt.Format("2006-01-02")
				}
				count, err := app.Articles.CountForSource(ctx, s.ID)
				if err != nil {
					return err
				}
				app.printf("  • [%s] %s", s.Type, s.URL)
				app.printf("    Last fetched: %s, %d articles stored", lastFetched, count)
			}
			return nil
		},
	}
}

func newSourceRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <source-id>",
		Short: "Remove a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Sources.Delete(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Source not found: %s", args[0])
					return nil
				}
				return err
			}
			app.printf("✓ Source removed: %s", args[0])
			return nil
		},
	}
}

// parseMetadataFlag decodes a JSON object flag into open metadata; an empty
// flag yields nil.
func parseMetadataFlag(raw string) (model.Metadata, error) {
	if raw == "" {
		return nil, nil
	}
	var m model.Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
