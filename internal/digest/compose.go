package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"digesttracker/internal/model"
)

// Supported output styles.
const (
	StyleChat     = "chat"
	StyleMarkdown = "markdown"
)

// Display policies shared by the renderers. Fixed, not configurable: the
// same input must always render the same text.
const (
	topStoriesMin     = 3
	titleDisplayMax   = 60
	summaryDisplayMax = 100
	shortDateLayout   = "Jan 02"
	longDateLayout    = "January 02, 2006"
)

// Input is the composer contract: an already-capped, newest-first article
// sequence plus the window it was selected from.
type Input struct {
	Topic     model.Topic
	Articles  []model.Article
	Frequency string
	Since     time.Time
	Until     time.Time
	ShowURLs  bool
}

// Render produces the digest body in the requested style. Unknown styles
// render as chat.
func Render(style string, in Input) string {
	if style == StyleMarkdown {
		return renderMarkdown(in)
	}
	return renderChat(in)
}

// renderChat is the compact messenger-friendly style: a one-line header, a
// top-stories excerpt when there are at least three articles, then a flat
// numbered list.
func renderChat(in Input) string {
	var lines []string

	period := in.Since.Format(shortDateLayout)
	if in.Frequency == "weekly" {
		period = fmt.Sprintf("Week of %s - %s", in.Since.Format(shortDateLayout), in.Until.Format(shortDateLayout))
	}
	lines = append(lines,
		fmt.Sprintf("📊 *%s Digest — %s*", titleCase(in.Topic.Name), period),
		"",
		fmt.Sprintf("*%d articles tracked*", len(in.Articles)),
		"",
	)

	if len(in.Articles) >= topStoriesMin {
		lines = append(lines, "*🔥 Top Stories*")
		for i, article := range in.Articles[:topStoriesMin] {
			lines = append(lines, fmt.Sprintf("%d. %s… (%s)",
				i+1,
				truncate(displayTitle(article), titleDisplayMax),
				article.Metadata.String("source"),
			))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("*📄 Articles (%d)*", len(in.Articles)))
	for i, article := range in.Articles {
		line := fmt.Sprintf("%d. *%s*", i+1, displayTitle(article))
		if article.PublishedAt != nil {
			line += " — " + article.PublishedAt.Format(shortDateLayout)
		}
		lines = append(lines, line)

		if article.Summary != "" && article.Summary != article.Content {
			lines = append(lines, fmt.Sprintf("   → %s…", truncate(article.Summary, summaryDisplayMax)))
		}
		if in.ShowURLs {
			lines = append(lines, "   "+article.URL)
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderMarkdown is the long-form blog style: document header, summary
// section, expanded top stories, then one section per article.
func renderMarkdown(in Input) string {
	var lines []string

	period := in.Until.Format(longDateLayout)
	if in.Frequency == "weekly" {
		period = "Week ending " + period
	}
	lines = append(lines,
		fmt.Sprintf("# %s %s Digest", titleCase(in.Topic.Name), titleCase(in.Frequency)),
		"",
		fmt.Sprintf("*%s | %d articles tracked*", period, len(in.Articles)),
		"",
		"## Summary",
		"",
		Summarize(in.Articles),
		"",
	)

	if len(in.Articles) >= topStoriesMin {
		lines = append(lines, "## Top Stories", "")
		for _, article := range in.Articles[:topStoriesMin] {
			lines = append(lines,
				"### "+displayTitle(article),
				"",
				"*Source*: "+article.Metadata.String("source"),
				"",
			)
		}
	}

	lines = append(lines, "## All Articles", "")
	for _, article := range in.Articles {
		lines = append(lines, "### "+displayTitle(article), "")
		if article.PublishedAt != nil {
			lines = append(lines, "*Published*: "+article.PublishedAt.Format(longDateLayout))
		}
		lines = append(lines,
			"*Source*: "+article.Metadata.String("source"),
			"",
			article.URL,
			"",
		)
	}

	return strings.Join(lines, "\n")
}

// Summarize builds the structural summary: total article count, then the
// three largest origin groups, then how many origins remain beyond those.
// Group ties keep first-encountered order.
func Summarize(articles []model.Article) string {
	if len(articles) == 0 {
		return "No articles to summarize."
	}

	counts := map[string]int{}
	var order []string
	for _, article := range articles {
		origin := article.Origin()
		if _, seen := counts[origin]; !seen {
			order = append(order, origin)
		}
		counts[origin]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Tracked %d article", len(articles))
	if len(articles) > 1 {
		b.WriteString("s")
	}

	top := order
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top)+1)
	for _, origin := range top {
		parts = append(parts, fmt.Sprintf("%d from %s", counts[origin], origin))
	}
	if len(order) > 3 {
		parts = append(parts, fmt.Sprintf("and %d more", len(order)-3))
	}
	b.WriteString(" from ")
	b.WriteString(strings.Join(parts, ", "))

	return b.String()
}

func displayTitle(article model.Article) string {
	if article.Title == "" {
		return "No title"
	}
	return article.Title
}

// truncate cuts s to at most n runes; the callers append their own
// ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
