package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gosimple/slug"
)

// LocalPublisher writes digests into a content directory tree, the layout
// Jekyll and Hugo expect. Filenames carry a time-of-day stamp plus a
// per-publisher counter, so repeated publishes within the same second still
// land on distinct paths. The counter is process-local: two processes
// publishing in the same second can collide, which is accepted.
type LocalPublisher struct {
	postsDir string
	seq      atomic.Int64
}

// NewLocalPublisher builds a publisher whose default posts sub-directory is
// postsDir; blogs may override it per destination with a posts_dir config
// key.
func NewLocalPublisher(postsDir string) *LocalPublisher {
	if postsDir == "" {
		postsDir = "_posts"
	}
	return &LocalPublisher{postsDir: postsDir}
}

// Publish resolves the destination path, optionally prepends a front-matter
// block, writes the artifact and returns its path.
//
// Blog config keys: path (base directory; falls back to content_dir, then
// posts_dir), posts_dir (sub-directory name), frontmatter (bool),
// frontmatter_format (yaml, toml or json), frontmatter_fields (extra
// key/values), layout.
func (p *LocalPublisher) Publish(_ context.Context, req Request) (string, error) {
	postsDir := req.Config.String("posts_dir")
	if postsDir == "" {
		postsDir = p.postsDir
	}

	base := req.Config.String("path")
	if base == "" {
		base = req.Config.String("content_dir")
	}
	if base == "" {
		base = postsDir
	}
	base = expandHome(base)

	// When the base path already names the posts directory it is used as
	// is; otherwise the posts directory is appended.
	postsPath := base
	if filepath.Base(base) != postsDir {
		postsPath = filepath.Join(base, postsDir)
	}

	// A prefix ending in a separator is purely a directory. Otherwise a
	// separator inside it nests the whole prefix as directories with the
	// last segment doubling as the filename namespace; a bare prefix only
	// namespaces the filename.
	prefix := req.SlugPrefix
	endsWithSep := strings.HasSuffix(prefix, "/")
	prefix = strings.Trim(prefix, "/")

	slugFile := slug.Make(req.Title)
	switch {
	case prefix == "":
	case endsWithSep:
		postsPath = filepath.Join(postsPath, filepath.FromSlash(prefix))
	case strings.Contains(prefix, "/"):
		postsPath = filepath.Join(postsPath, filepath.FromSlash(prefix))
		slugFile = prefix[strings.LastIndex(prefix, "/")+1:] + "-" + slugFile
	default:
		slugFile = prefix + "-" + slugFile
	}

	now := time.Now()
	filename := fmt.Sprintf("%s-%s-%d-%s.md",
		now.Format("2006-01-02"),
		now.Format("150405"),
		p.seq.Add(1),
		slugFile,
	)

	content := req.Content
	if req.Config.Bool("frontmatter") {
		block, err := frontMatter(req, now)
		if err != nil {
			return "", fmt.Errorf("render front matter: %w", err)
		}
		content = block + "\n" + content
	}

	if err := os.MkdirAll(postsPath, 0o755); err != nil {
		return "", fmt.Errorf("create posts dir: %w", err)
	}

	path := filepath.Join(postsPath, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
