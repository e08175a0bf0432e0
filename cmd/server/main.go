package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/config"
	"issuebrowser/internal/github"
	"issuebrowser/internal/jobs"
	"issuebrowser/internal/metrics"
	"issuebrowser/internal/render"
	"issuebrowser/internal/server"
	"issuebrowser/internal/taxonomy"
)

const labelLoadTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; the environment wins either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("failed to read .env")
	}

	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	yamlCfg, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config file")
	}
	if yamlCfg != nil {
		logrus.WithField("path", cfg.ConfigFile).Info("loaded config file")
	}

	client, err := github.NewClient(cfg.GitHubRepository, cfg.GitHubToken,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithRateLimit(cfg.GitHubRateLimit, 1),
		github.WithRetries(cfg.GitHubMaxRetries, 500*time.Millisecond),
		github.WithPageSize(cfg.SearchPageSize),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create GitHub client")
	}
	if !cfg.HasToken() {
		logrus.Warn("GITHUB_TOKEN is not set; using unauthenticated GitHub rate limits")
	}

	store := taxonomy.NewStore(yamlCfg.CategoryOrder(), yamlCfg.HiddenCategories())
	registry := browser.NewRegistry(browser.Options{
		Repository:    cfg.GitHubRepository,
		Searcher:      client,
		Renderer:      render.NewCached(render.NewMarkdown(), cfg.RenderCacheTTL),
		KeywordQuiet:  cfg.KeywordDebounce,
		SearchTimeout: cfg.SearchTimeout,
		DefaultSort:   yamlCfg.DefaultSortField(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Init(reg, registry)

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Registry:   registry,
		Taxonomy:   store,
		SortLabels: yamlCfg.SortLabels(),
		Gatherer:   reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Labels load once in the background; until then the filter panel shows a
	// loading state and /readyz reports not ready.
	g.Go(func() error {
		loadCtx, cancel := context.WithTimeout(gctx, labelLoadTimeout)
		defer cancel()
		if err := store.Load(loadCtx, client); err != nil {
			logrus.WithError(err).Error("label taxonomy unavailable; filtering by label is disabled")
		}
		return nil
	})

	g.Go(func() error {
		jobs.NewSessionSweeper(registry, 0, cfg.SessionIdleTimeout).Start(gctx)
		return nil
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down server")
		registry.CloseAll()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("server exited with error")
	}
	logrus.Info("server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
