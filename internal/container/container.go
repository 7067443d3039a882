// Package container provides dependency injection for the application. It
// centralizes the creation and wiring of all components, making the
// dependency graph explicit and testable.
package container

import (
	"context"
	"fmt"

	"finbot/internal/assistant"
	"finbot/internal/auth"
	"finbot/internal/categorizer"
	"finbot/internal/config"
	"finbot/internal/export"
	"finbot/internal/fallback"
	"finbot/internal/logging"
	"finbot/internal/notify"
	"finbot/internal/ocr"
	"finbot/internal/ratelimit"
	"finbot/internal/receipt"
	"finbot/internal/resolver"
	"finbot/internal/scheduler"
	"finbot/internal/semantic"
	"finbot/internal/server"
	"finbot/internal/stats"
	"finbot/internal/store"
)

// Container holds the wired application components. It is immutable after
// creation; components are reached through getters.
type Container struct {
	cfg    *config.Config
	logger logging.Logger

	store     *store.Store
	resolver  *resolver.Resolver
	pipeline  *receipt.Pipeline
	scheduler *scheduler.Scheduler
	server    *server.Server
	assistant *assistant.Assistant
}

// New wires every component the server and the renewal sweep need. Optional
// integrations (semantic parser, OCR, assistant) are enabled only when their
// API keys are configured; the database, bot token and cron secret are
// mandatory.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	st, err := store.New(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	verifier, err := auth.NewVerifier(cfg.Telegram.Token, logger)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.New(cfg.Telegram.Token, "", logger)
	if err != nil {
		return nil, err
	}

	index, err := buildIndex(cfg, logger)
	if err != nil {
		return nil, err
	}
	fb := fallback.NewParser(index, logger)

	var semanticClient *semantic.Client
	if cfg.Parser.APIKey != "" {
		semanticClient, err = semantic.NewClient(semantic.Config{
			APIKey:  cfg.Parser.APIKey,
			Model:   cfg.Parser.Model,
			BaseURL: cfg.Parser.BaseURL,
			Timeout: cfg.ParserTimeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("Semantic parser disabled, using fallback parser only")
	}

	// The interface-typed resolver argument must stay nil when the client is
	// absent, a typed nil would defeat the nil check.
	var entryParser resolver.EntryParser
	if semanticClient != nil {
		entryParser = semanticClient
	}
	res := resolver.New(entryParser, fb, logger)

	var pipeline *receipt.Pipeline
	if cfg.OCR.APIKey != "" && semanticClient != nil {
		ocrClient, err := ocr.NewClient(ocr.Config{APIKey: cfg.OCR.APIKey}, logger)
		if err != nil {
			return nil, err
		}
		pipeline = receipt.NewPipeline(ocrClient, semanticClient, index, st, logger)
	} else {
		logger.Warn("Receipt pipeline disabled, OCR or parser API key missing")
	}

	reporter := stats.New(st, logger)

	var asst *assistant.Assistant
	if cfg.Assistant.APIKey != "" {
		asst, err = assistant.New(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model, st, reporter, st, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("Assistant disabled, no API key configured")
	}

	sched := scheduler.New(st, notifier, logger)

	deps := server.Deps{
		Resolver:      res,
		Authenticator: verifier,
		Limiter:       ratelimit.New(ratelimit.NewMemoryStore(), logger),
		Renewals:      sched,
		Reporter:      reporter,
		Exporter:      export.New(st, logger),
		Store:         st,
		CronSecret:    cfg.Cron.Secret,
		Logger:        logger,
	}
	if pipeline != nil {
		deps.Receipts = pipeline
	}
	if asst != nil {
		deps.Assistant = asst
	}

	return &Container{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		resolver:  res,
		pipeline:  pipeline,
		scheduler: sched,
		server:    server.New(deps),
		assistant: asst,
	}, nil
}

func buildIndex(cfg *config.Config, logger logging.Logger) (*categorizer.Index, error) {
	if cfg.Categories.File == "" {
		return categorizer.NewIndex(logger), nil
	}
	categories, err := categorizer.LoadCategories(cfg.Categories.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories file: %w", err)
	}
	return categorizer.NewIndexWithCategories(categories, logger), nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.assistant != nil {
		if err := c.assistant.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close assistant client")
		}
	}
	c.store.Close()
}

// Server returns the wired HTTP server.
func (c *Container) Server() *server.Server { return c.server }

// Scheduler returns the renewal scheduler.
func (c *Container) Scheduler() *scheduler.Scheduler { return c.scheduler }

// Store returns the persistence layer.
func (c *Container) Store() *store.Store { return c.store }
