// Package cli builds the digest-tracker command tree. Nothing-to-do
// outcomes (unknown topic, empty period, no linked blog) print an
// explanatory line and exit clean; storage and destination failures
// propagate as errors.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"digesttracker/internal/digest"
	"digesttracker/internal/fetcher"
	"digesttracker/internal/publish"
	"digesttracker/internal/storage"
)

// App bundles the wired collaborators the commands run against.
type App struct {
	Topics    *storage.TopicPostgresStorage
	Sources   *storage.SourcePostgresStorage
	Articles  *storage.ArticlePostgresStorage
	Blogs     *storage.BlogPostgresStorage
	Digests   *storage.DigestPostgresStorage
	Schedules *storage.SchedulePostgresStorage

	Fetcher   *fetcher.Runner
	Generator *digest.Generator
	Publisher *publish.Service

	// LookbackDays seeds the fetch command's --days default.
	LookbackDays int

	Out io.Writer
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format+"\n", args...)
}

// New assembles the root command.
func New(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "digest-tracker",
		Short:         "Track topics, fetch news, and generate digests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTopicCmd(app),
		newSourceCmd(app),
		newBlogCmd(app),
		newFetchCmd(app),
		newGenerateCmd(app),
		newHistoryCmd(app),
		newViewCmd(app),
		newExportCmd(app),
		newPublishCmd(app),
		newScheduleCmd(app),
	)

	return root
}
