package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/guru-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/guru-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/guru-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/guru-cli/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/guru-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/guru-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/guru-cli/internal/config"
	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/core/services"
	"github.com/custodia-labs/guru-cli/internal/logger"
	"github.com/custodia-labs/guru-cli/internal/normalisers"
	"github.com/custodia-labs/guru-cli/internal/postprocessors/chunker"
)

// Build wires the services for cfg. The corpus pipeline always comes up;
// when the model settings are incomplete the session service is left nil
// and App.SessionErr holds the configuration error, so commands that never
// call a model keep working.
func Build(ctx context.Context, cfg *config.Config) (*cli.App, error) {
	if err := cfg.ValidateCorpus(); err != nil {
		return nil, err
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.New(tok,
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}

	maxFileSize := cfg.Corpus.MaxFileSize
	sources := func(dir string) driven.CorpusSource {
		return filesystem.New(dir, filesystem.WithMaxFileSize(maxFileSize))
	}
	loader := services.NewCorpusLoader(normalisers.Defaults())

	app := &cli.App{
		Config: cfg,
		Corpus: services.NewCorpusInspector(sources, loader, splitter),
		Watch: func(dir string) driven.CorpusWatcher {
			return filesystem.New(dir, filesystem.WithMaxFileSize(maxFileSize))
		},
	}

	var closers []func() error
	app.Close = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	var store *sqlite.Store
	if cfg.Transcript.Enabled {
		store, err = sqlite.NewStore(cfg.Transcript.Directory)
		if err != nil {
			return nil, fmt.Errorf("open transcript store: %w", err)
		}
		closers = append(closers, store.Close)
		app.History = services.NewHistoryService(store)
		logger.Debug("Transcripts stored in %s", store.Path())
	}

	if err := cfg.Validate(); err != nil {
		app.SessionErr = err
		return app, nil
	}

	models, err := ai.New(ctx, cfg.EmbeddingSettings(), cfg.LLMSettings())
	if err != nil {
		app.SessionErr = err
		return app, nil
	}
	closers = append(closers, models.Close)

	prompts, err := file.NewPromptStore(cfg.Prompts.Directory)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	builder := services.NewIndexBuilder(models.Embedding, vectorFactory(cfg), cfg.IndexConfig())
	sessions := services.NewSessionService(
		sources, loader, splitter, builder,
		models.LLM, prompts, tok, cfg.SessionConfig(),
	)
	if store != nil {
		sessions.SetTranscriptStore(store)
	}

	app.Sessions = sessions
	app.Check = models.Check
	return app, nil
}

// newTokenizer uses the configured encoding, or the embedding model's own
// encoding when none is set.
func newTokenizer(cfg *config.Config) (*tiktoken.Tokenizer, error) {
	if cfg.Chunking.Encoding != "" {
		return tiktoken.New(cfg.Chunking.Encoding)
	}
	return tiktoken.ForModel(cfg.Embedding.Model)
}

func vectorFactory(cfg *config.Config) driven.VectorIndexFactory {
	if cfg.Vector.Backend == config.BackendRedis {
		return redis.NewFactory(cfg.RedisConfig())
	}
	return memory.Factory
}
