package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"digesttracker/internal/cli"
	"digesttracker/internal/config"
	"digesttracker/internal/digest"
	"digesttracker/internal/fetcher"
	"digesttracker/internal/logging"
	"digesttracker/internal/model"
	"digesttracker/internal/publish"
	"digesttracker/internal/source"
	"digesttracker/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Get()

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := storage.Bootstrap(ctx, db); err != nil {
		logger.Fatal("bootstrap schema", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: cfg.FetchTimeout}

	fetchers := source.NewRegistry()
	fetchers.Register(model.SourceTypeRSS, source.NewRSSFetcher(httpClient))
	fetchers.Register(model.SourceTypeWeb, source.NewWebFetcher(httpClient))

	publishers := publish.NewRegistry()
	publishers.Register(model.BlogTypeLocal, publish.NewLocalPublisher(cfg.PostsDir))
	publishers.Register(model.BlogTypeTelegram, publish.NewTelegramPublisher())

	var (
		topicStorage    = storage.NewTopicStorage(db)
		sourceStorage   = storage.NewSourceStorage(db)
		articleStorage  = storage.NewArticleStorage(db)
		blogStorage     = storage.NewBlogStorage(db)
		digestStorage   = storage.NewDigestStorage(db)
		scheduleStorage = storage.NewScheduleStorage(db)

		runner = fetcher.New(
			articleStorage,
			sourceStorage,
			fetchers,
			cfg.FetchTimeout,
			logger.Named("fetcher"),
		)
		generator = digest.NewGenerator(
			topicStorage,
			articleStorage,
			digestStorage,
			blogStorage,
			digest.Options{
				MaxArticles: cfg.MaxDigestArticles,
				Style:       cfg.DigestStyle,
				ShowURLs:    cfg.ShowURLs,
			},
		)
		publisher = publish.NewService(digestStorage, topicStorage, blogStorage, publishers)
	)

	app := &cli.App{
		Topics:    topicStorage,
		Sources:   sourceStorage,
		Articles:  articleStorage,
		Blogs:     blogStorage,
		Digests:   digestStorage,
		Schedules: scheduleStorage,

		Fetcher:   runner,
		Generator: generator,
		Publisher: publisher,

		LookbackDays: cfg.FetchLookbackDays,

		Out: os.Stdout,
	}

	if err := cli.New(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}
