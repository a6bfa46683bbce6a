// Package publish turns rendered digests into artifacts at configured
// destinations: a local content directory tree, a telegram channel, or
// whatever else gets registered.
package publish

import (
	"context"
	"errors"
	"fmt"

	"digesttracker/internal/model"
)

// ErrNoBlog means the digest's topic has no linked blog and none was named
// explicitly. A nothing-to-do outcome, not a failure.
var ErrNoBlog = errors.New("no blog specified or linked to topic")

// Request carries everything a backend needs to place one artifact.
// Metadata holds caller-supplied front-matter fields; on key collision they
// win over the blog config's own fields.
type Request struct {
	Content    string
	Title      string
	Config     model.Metadata
	SlugPrefix string
	Metadata   model.Metadata
}

// Publisher writes one artifact and returns a reference to it: a filesystem
// path or a URL, depending on the backend.
type Publisher interface {
	Publish(ctx context.Context, req Request) (string, error)
}

// Registry maps a blog type tag to its publish backend. Adding a blog type
// means one implementation plus one Register call.
type Registry struct {
	backends map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{backends: map[string]Publisher{}}
}

func (r *Registry) Register(blogType string, publisher Publisher) {
	r.backends[blogType] = publisher
}

func (r *Registry) Lookup(blogType string) (Publisher, error) {
	publisher, ok := r.backends[blogType]
	if !ok {
		return nil, fmt.Errorf("unknown blog type: %q", blogType)
	}
	return publisher, nil
}

type DigestStorage interface {
	ByID(ctx context.Context, id string) (model.Digest, error)
	MarkPublished(ctx context.Context, id, publishedURL string) error
}

type TopicStorage interface {
	ByID(ctx context.Context, id string) (model.Topic, error)
}

type BlogStorage interface {
	ByName(ctx context.Context, name string) (model.Blog, error)
	ForTopic(ctx context.Context, topicID string) (model.Blog, error)
	LinkForTopic(ctx context.Context, topicID string) (model.TopicBlog, error)
}

// Service resolves where a digest should go and hands it to the matching
// backend. The digest is marked published only after the backend write
// fully succeeded.
type Service struct {
	digests  DigestStorage
	topics   TopicStorage
	blogs    BlogStorage
	registry *Registry
}

func NewService(digests DigestStorage, topics TopicStorage, blogs BlogStorage, registry *Registry) *Service {
	return &Service{
		digests:  digests,
		topics:   topics,
		blogs:    blogs,
		registry: registry,
	}
}

// Options select the destination for one publish call.
type Options struct {
	BlogName string // overrides the topic's linked blog
	DryRun   bool   // resolve everything but write nothing
}

// Outcome describes what happened, or would happen under DryRun.
type Outcome struct {
	Digest model.Digest
	Blog   model.Blog
	Path   string
	DryRun bool
}

// PublishDigest publishes a stored digest. A missing digest surfaces as
// model.ErrNotFound and a missing destination as ErrNoBlog; backend write
// failures propagate and leave the digest unpublished.
func (s *Service) PublishDigest(ctx context.Context, digestID string, opts Options) (Outcome, error) {
	digest, err := s.digests.ByID(ctx, digestID)
	if err != nil {
		return Outcome{}, err
	}

	topicName := "unknown"
	topic, err := s.topics.ByID(ctx, digest.TopicID)
	switch {
	case err == nil:
		topicName = topic.Name
	case !errors.Is(err, model.ErrNotFound):
		return Outcome{}, err
	}

	var blog model.Blog
	if opts.BlogName != "" {
		blog, err = s.blogs.ByName(ctx, opts.BlogName)
	} else {
		blog, err = s.blogs.ForTopic(ctx, digest.TopicID)
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Outcome{}, ErrNoBlog
		}
		return Outcome{}, err
	}

	if opts.DryRun {
		return Outcome{Digest: digest, Blog: blog, DryRun: true}, nil
	}

	backend, err := s.registry.Lookup(blog.Type)
	if err != nil {
		return Outcome{}, err
	}

	// The slug prefix rides on the topic-blog link and only applies when
	// publishing to the linked blog itself.
	slugPrefix := ""
	link, err := s.blogs.LinkForTopic(ctx, digest.TopicID)
	switch {
	case err == nil && link.BlogID == blog.ID:
		slugPrefix = link.SlugPrefix
	case err != nil && !errors.Is(err, model.ErrNotFound):
		return Outcome{}, err
	}

	path, err := backend.Publish(ctx, Request{
		Content:    digest.Content,
		Title:      fmt.Sprintf("%s %s digest", topicName, digest.Frequency),
		Config:     blog.Config,
		SlugPrefix: slugPrefix,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("publish digest %s: %w", digestID, err)
	}

	if err := s.digests.MarkPublished(ctx, digest.ID, path); err != nil {
		return Outcome{}, fmt.Errorf("mark digest published: %w", err)
	}

	digest.Published = true
	digest.PublishedURL = path
	return Outcome{Digest: digest, Blog: blog, Path: path}, nil
}
