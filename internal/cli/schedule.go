package cli

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"digesttracker/internal/model"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage digest schedules",
	}
	cmd.AddCommand(newScheduleAddCmd(app), newScheduleListCmd(app), newScheduleRemoveCmd(app))
	return cmd
}

func newScheduleAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic> <frequency> <cron>",
		Short: "Schedule digest generation for a topic",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topicName, frequency, cronExpr := args[0], args[1], args[2]

			if _, err := cron.ParseStandard(cronExpr); err != nil {
				app.printf("✗ Invalid cron expression: %v", err)
				return nil
			}

			topic, err := app.Topics.ByName(ctx, topicName)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Topic not found: %s", topicName)
					return nil
				}
				return err
			}

			sched, err := app.Schedules.Create(ctx, model.Schedule{
				TopicID:   topic.ID,
				Frequency: frequency,
				CronExpr:  cronExpr,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Schedule added: %s %s digest at '%s' (ID: %s)", topicName, frequency, cronExpr, sched.ID)
			return nil
		},
	}
}

func newScheduleListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List digest schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schedules, err := app.Schedules.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(schedules) == 0 {
				app.printf("No schedules found.")
				return nil
			}

			for _, s := range schedules {
				app.printf("✓ %s — %s at '%s'", s.TopicName, s.Frequency, s.CronExpr)
				if sched, err := cron.ParseStandard(s.CronExpr); err == nil {
					app.printf("    Next run: %s", sched.Next(time.Now()).Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}
}

func newScheduleRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <topic> <frequency>",
		Short: "Remove a digest schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topicName, frequency := args[0], args[1]

			topic, err := app.Topics.ByName(ctx, topicName)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Topic not found: %s", topicName)
					return nil
				}
				return err
			}

			if err := app.Schedules.Delete(ctx, topic.ID, frequency); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					app.printf("✗ Schedule not found: %s %s", topicName, frequency)
					return nil
				}
				return err
			}
			app.printf("✓ Schedule removed: %s %s", topicName, frequency)
			return nil
		},
	}
}
