package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intaked/internal/config"
	"github.com/fyrsmithlabs/intaked/internal/convert"
	"github.com/fyrsmithlabs/intaked/internal/embeddings"
	"github.com/fyrsmithlabs/intaked/internal/extract"
	"github.com/fyrsmithlabs/intaked/internal/intake"
	"github.com/fyrsmithlabs/intaked/internal/logging"
	"github.com/fyrsmithlabs/intaked/internal/memory"
)

// app holds the wired components shared by the subcommands. store and
// embedder are nil when correction memory could not start; the engine
// runs without it.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	pipeline  *intake.Pipeline
	store     *memory.Store
	embedder  embeddings.Provider
	converter *convert.Client
}

func newApp() (*app, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	client, err := extract.NewClient(cfg.Extraction)
	if err != nil {
		return nil, fmt.Errorf("creating extraction client: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		converter: convert.NewClient(cfg.Convert, logger.Named("convert")),
	}

	// Correction memory is fail-open at startup too: if the embedding
	// model or the index cannot come up, intake runs without it.
	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		logger.Warn("embeddings unavailable, corrections disabled", zap.Error(err))
	} else {
		store, err := memory.NewStoreFromConfig(cfg.Memory, embedder, logger.Named("memory"))
		if err != nil {
			logger.Warn("correction memory unavailable, corrections disabled", zap.Error(err))
			_ = embedder.Close()
		} else {
			a.embedder = embedder
			a.store = store
		}
	}

	var corrections intake.CorrectionSource
	if a.store != nil {
		corrections = a.store
	}

	pipeline, err := intake.NewPipeline(
		extract.NewIdentityExtractor(client),
		extract.NewCategoryExtractor(client),
		extract.NewOriginExtractor(client),
		extract.NewSummaryExtractor(client),
		corrections,
		cfg.Rules,
		logger.Named("intake"),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.pipeline = pipeline

	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing correction store", zap.Error(err))
		}
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
