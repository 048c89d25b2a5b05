package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/feed/remotive"
	"github.com/spigell/job-matcher/internal/ingest"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/scoring"
	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/server"
	"github.com/spigell/job-matcher/internal/store/memory"
	"github.com/spigell/job-matcher/internal/store/postgres"
)

// appStore is everything the commands need from a store.
type appStore interface {
	server.Store
	pipeline.ProfileStore
	pipeline.JobStore
	pipeline.MatchStore
	ingest.JobSaver
}

// openStore returns the seeded memory store in mock mode and a Postgres store otherwise.
// The returned func releases the store.
func openStore(ctx context.Context, config *Config, logger *zap.Logger) (appStore, func(), error) {
	policy, err := matching.ParseMatchPolicy(config.Matching.MatchPolicy)
	if err != nil {
		return nil, nil, err
	}

	if config.Mock {
		logger.Info("using the in-memory store seeded with mock data", zap.String("user_id", memory.MockUserID))
		return memory.NewSeeded(policy), func() {}, nil
	}

	url, err := databaseURL(config.Database)
	if err != nil {
		return nil, nil, err
	}

	poolCfg := postgres.DefaultConfig()
	if config.Database.MaxConns > 0 {
		poolCfg.MaxConns = config.Database.MaxConns
	}
	if config.Database.MinConns > 0 {
		poolCfg.MinConns = config.Database.MinConns
	}

	store, err := postgres.Connect(ctx, url, poolCfg, policy, logger.Named("postgres"))
	if err != nil {
		return nil, nil, err
	}

	logger.Info("connected to postgres", zap.String("match_policy", string(policy)))
	return store, store.Close, nil
}

func databaseURL(cfg *DatabaseConfig) (string, error) {
	url, err := secrets.Load(secrets.Source{
		Name:  "database url",
		Value: cfg.URL,
		File:  cfg.URLFile,
	})
	if err != nil {
		return "", fmt.Errorf("%w (set DATABASE_URL, DATABASE_URL_FILE or database.url)", err)
	}
	return url, nil
}

func newScorer(ctx context.Context, config *Config, logger *zap.Logger) (*scoring.Scorer, error) {
	backend := strings.TrimSpace(strings.ToLower(config.Matching.Backend))

	switch backend {
	case "", "tfidf":
		return scoring.NewScorer(scoring.TFIDF{}, logger), nil
	case "gemini":
		cfg := config.AI.Gemini

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
		}

		embedder, err := gemini.NewEmbedder(ctx, apiKey, cfg.Model, logger.Named("gemini"))
		if err != nil {
			return nil, err
		}

		return scoring.NewScorer(gemini.NewEmbeddingBackend(embedder, logger, cfg.MaxLogLength), logger), nil
	default:
		return nil, fmt.Errorf("unsupported matching backend: %s", config.Matching.Backend)
	}
}

func newPipeline(store appStore, scorer *scoring.Scorer, opts pipeline.Options, logger *zap.Logger) *pipeline.Pipeline {
	stages := pipeline.NewStages(pipeline.Deps{
		Profiles: store,
		Jobs:     store,
		Matches:  store,
		Scorer:   scorer,
		Logger:   logger,
	}, opts)

	for _, status := range pipeline.Describe(stages) {
		fields := []zap.Field{
			zap.String("stage", status.Name),
			zap.Bool("enabled", status.Enabled),
		}
		if status.Reason != "" {
			fields = append(fields, zap.String("reason", status.Reason))
		}
		for k, v := range status.Details {
			fields = append(fields, zap.String(k, v))
		}
		logger.Debug("pipeline stage", fields...)
	}

	return pipeline.New(stages, logger)
}

func newIngester(config *Config, store ingest.JobSaver, logger *zap.Logger) *ingest.Ingester {
	client := remotive.New(logger.Named("remotive"), config.Feed.URL)
	if config.Feed.MaxRetries >= 0 {
		client.MaxRetries = config.Feed.MaxRetries
	}

	return ingest.New(client, store, ingest.Options{
		PlainText: config.Feed.PlainText,
		DumpFile:  config.Feed.DumpFile,
	}, logger)
}
