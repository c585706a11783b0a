package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/apollo"
	"github.com/jonathan/pathfinder/internal/config"
	"github.com/jonathan/pathfinder/internal/db"
	"github.com/jonathan/pathfinder/internal/drafting"
	"github.com/jonathan/pathfinder/internal/fetch"
	"github.com/jonathan/pathfinder/internal/llm"
	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/outreach"
	"github.com/jonathan/pathfinder/internal/research"
	"github.com/jonathan/pathfinder/internal/retry"
)

// app holds the wired outreach stack shared by serve and outreach run.
type app struct {
	db           *db.DB
	redis        *redis.Client
	llm          llm.Client
	orchestrator *outreach.Orchestrator
	launcher     *outreach.Launcher
	logger       *zap.Logger
}

// newApp connects to storage and builds every upstream client the configuration enables.
// In-process runs need a contact source; workflow mode does not.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*app, error) {
	a := &app{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = database

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.RetryMaxAttempts

	opts := []outreach.Option{
		outreach.WithLogger(logger),
		outreach.WithMetrics(metrics),
		outreach.WithDefaultMaxContacts(cfg.MaxContacts),
	}

	var contacts outreach.ContactSource
	if cfg.ApolloAPIKey != "" {
		client, err := apollo.New(cfg.ApolloAPIKey,
			apollo.WithBaseURL(cfg.ApolloBaseURL),
			apollo.WithRequestsPerMinute(cfg.ApolloRequestsPerMinute),
			apollo.WithRetry(retryCfg),
			apollo.WithLogger(logger),
			apollo.WithMetrics(metrics))
		if err != nil {
			return nil, err
		}
		contacts = client
		opts = append(opts, outreach.WithContactEnricher(client))
	} else if !cfg.WorkflowMode() {
		return nil, fmt.Errorf("config error: APOLLO_API_KEY is required unless OUTREACH_WEBHOOK_URL is set")
	}

	var cache fetch.PageCache
	if cfg.RedisURL != "" {
		client, err := fetch.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("profile page cache disabled", zap.Error(err))
		} else {
			a.redis = client
			cache = fetch.NewRedisCache(client)
		}
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.ProxyURL = cfg.ProxyURL()
	fetcher := fetch.NewCachedFetcher(fetch.CachedFetcherConfig{
		Cache:      cache,
		Options:    fetchOpts,
		UseBrowser: cfg.EnrichUseBrowser,
		Logger:     logger,
	})
	enricher := research.NewEnricher(fetcher,
		research.WithLogger(logger),
		research.WithMetrics(metrics),
		research.WithRetry(retryCfg))

	if cfg.ProfileSearchEnabled() {
		finder, err := research.NewProfileFinder(ctx, cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, outreach.WithProfileFinder(finder))
	}

	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llm = client
	} else {
		logger.Info("GEMINI_API_KEY not set, drafting from the template")
	}
	drafter := drafting.New(a.llm, drafting.WithLogger(logger), drafting.WithMetrics(metrics))

	a.orchestrator = outreach.New(database, contacts, enricher, drafter, opts...)

	var webhook *outreach.WebhookTrigger
	if cfg.WorkflowMode() {
		signer, err := outreach.NewCallbackSigner(cfg.CallbackSecret, outreach.DefaultCallbackTTL)
		if err != nil {
			return nil, err
		}
		webhook, err = outreach.NewWebhookTrigger(cfg.WebhookURL, cfg.PublicBaseURL, signer, logger, metrics)
		if err != nil {
			return nil, err
		}
		logger.Info("launches delegated to external workflow", zap.String("webhook", cfg.WebhookURL))
	}
	a.launcher = outreach.NewLauncher(a.orchestrator, webhook)

	ok = true
	return a, nil
}

// Close waits for in-process runs and releases connections.
func (a *app) Close() {
	if a.launcher != nil {
		a.launcher.Wait()
	}
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			a.logger.Warn("failed to close LLM client", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// loadConfig reads and validates the environment and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
