package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"rxdesk/m/internal/config"
	"rxdesk/m/internal/database"
	"rxdesk/m/internal/extraction"
	"rxdesk/m/internal/metrics"
	"rxdesk/m/internal/migrations"
	"rxdesk/m/internal/pipeline"
	"rxdesk/m/internal/reconcile"
	"rxdesk/m/internal/store"
)

// openDB connects and applies the schema.
func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newExtractor(ctx context.Context, v config.VisionConfig) (extraction.Client, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	opts := extraction.Options{Provider: v.Provider}
	switch v.Provider {
	case extraction.ProviderOpenAI:
		opts.APIKey, opts.Model, opts.BaseURL = v.OpenAIAPIKey, v.OpenAIModel, v.OpenAIBaseURL
	default:
		opts.APIKey, opts.Model = v.GoogleAPIKey, v.GeminiModel
	}
	client, err := extraction.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}
	return client, nil
}

// newPipeline wires the decision stage over db. A nil extractor leaves
// image runs disabled.
func newPipeline(db *sqlx.DB, e extraction.Extractor, m *metrics.Metrics, log zerolog.Logger) *pipeline.Pipeline {
	return pipeline.New(e, reconcile.New(store.New(db), log), m, log)
}
