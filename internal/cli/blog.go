package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"digesttracker/internal/model"
)

func newBlogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Manage publish destinations",
	}
	cmd.AddCommand(
		newBlogAddCmd(app),
		newBlogListCmd(app),
		newBlogLinkCmd(app),
		newBlogUnlinkCmd(app),
	)
	return cmd
}

func newBlogAddCmd(app *App) *cobra.Command {
	var configJSON string
	cmd := &cobra.Command{
		Use:   "add <name> <type>",
		Short: "Add a blog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := parseMetadataFlag(configJSON)
			if err != nil {
				return fmt.Errorf("parse --config: %w", err)
			}

			blog, err := app.Blogs.Create(cmd.Context(), model.Blog{
				Name:   args[0],
				Type:   args[1],
				Config: config,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Blog added: %s (type: %s, ID: %s)", blog.Name, blog.Type, blog.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&configJSON, "config", "", "JSON config for blog")
	return cmd
}

func newBlogListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all blogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blogs, err := app.Blogs.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(blogs) == 0 {
				app.printf("No blogs found.")
				return nil
			}
			for _, b := range blogs {
				app.printf("✓ %s (%s)", b.Name, b.Type)
				if path := b.Config.String("path"); path != "" {
					app.printf("  Path: %s", path)
				}
			}
			return nil
		},
	}
}

func newBlogLinkCmd(app *App) *cobra.Command {
	var (
		category   string
		slugPrefix string
	)
	cmd := &cobra.Command{
		Use:   "link <topic> <blog>",
		Short: "Link a blog to a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			topic, err := app.Topics.ByName(ctx, args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Failed to link. Check topic and blog names.")
					return nil
				}
				return err
			}
			blog, err := app.Blogs.ByName(ctx, args[1])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Failed to link. Check topic and blog names.")
					return nil
				}
				return err
			}

			if err := app.Blogs.Link(ctx, model.TopicBlog{
				TopicID:    topic.ID,
				BlogID:     blog.ID,
				Category:   category,
				SlugPrefix: slugPrefix,
			}); err != nil {
				return err
			}
			app.printf("✓ Linked blog '%s' to topic '%s'", args[1], args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Blog category/tag")
	cmd.Flags().StringVar(&slugPrefix, "slug-prefix", "", "URL slug prefix")
	return cmd
}

func newBlogUnlinkCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <topic>",
		Short: "Unlink blog from topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topic, err := app.Topics.ByName(ctx, args[0])
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Failed to unlink.")
					return nil
				}
				return err
			}
			if err := app.Blogs.Unlink(ctx, topic.ID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Failed to unlink.")
					return nil
				}
				return err
			}
			app.printf("✓ Unlinked blog from topic '%s'", args[0])
			return nil
		},
	}
}
