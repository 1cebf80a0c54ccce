package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
	embedder "github.com/DarrenZal/MycoMind/internal/infrastructure/embedder/openai"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/graphdb/neo4j"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/graphdb/sparql"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm/anthropic"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm/openai"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/logging"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/metrics"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/notes"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/relationaldb/sqlite"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/sources"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/vectordb/qdrant"
)

// Deps holds what every command needs once the project is initialized.
type Deps struct {
	BasePath string
	Config   *config.Config
	Logger   *zap.Logger
	Ontology *entities.Ontology
	Metrics  *metrics.Recorder
}

// VaultPath returns the configured vault directory. Relative paths are
// taken from the project directory.
func (d *Deps) VaultPath() string {
	return projectPath(d.BasePath, d.Config.Vault.Path)
}

// NoteStore returns a note store bound to the vault and ontology.
func (d *Deps) NoteStore() *notes.Store {
	vault := d.Config.Vault
	vault.Path = d.VaultPath()
	return notes.NewStore(vault, d.Ontology, d.Logger)
}

// ExtractDeps holds the extraction pipeline.
type ExtractDeps struct {
	*Deps
	Loader  *sources.Loader
	Notes   *notes.Store
	Handler *handlers.ExtractHandler
}

// ExtractionOptions maps processing config onto service options.
func (d *ExtractDeps) ExtractionOptions() services.ExtractionOptions {
	p := d.Config.Processing
	return services.ExtractionOptions{
		MaxAttempts:      p.MaxAttempts,
		QualityThreshold: p.QualityThreshold,
		ChunkSize:        p.ChunkSize,
		ChunkOverlap:     p.ChunkOverlap,
		ChunkTimeout:     p.ChunkTimeout,
	}
}

func basePath() (string, error) {
	if globalDir != "" {
		return filepath.Abs(globalDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

func projectPath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ontologyPath returns the --ontology flag, or the configured ontology
// resolved against the config directory.
func ontologyPath(base string, cfg *config.Config) string {
	if globalOntology != "" {
		return globalOntology
	}
	return config.ResolvePath(base, cfg.Ontology)
}

// withConfig loads config and the logger without touching the ontology.
func withConfig(fn func(base string, cfg *config.Config, logger *zap.Logger) error) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(base)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, globalVerbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	return fn(base, cfg, logger)
}

// withDeps loads config, logger and ontology, then calls the provided
// function. Metrics are written to the configured textfile afterwards.
func withDeps(fn func(*Deps) error) error {
	return withConfig(func(base string, cfg *config.Config, logger *zap.Logger) error {
		handler := handlers.NewOntologyHandler(services.NewOntologyService())
		ont, err := handler.HandleLoad(ontologyPath(base, cfg))
		if err != nil {
			return err
		}
		logger.Debug("ontology loaded",
			zap.String("name", ont.Name),
			zap.String("version", ont.Version),
			zap.String("fingerprint", ont.Fingerprint))

		deps := &Deps{
			BasePath: base,
			Config:   cfg,
			Logger:   logger,
			Ontology: ont,
			Metrics:  metrics.NewRecorder(),
		}

		runErr := fn(deps)

		if path := cfg.Metrics.Textfile; path != "" {
			if err := deps.Metrics.WriteTextfile(projectPath(base, path)); err != nil {
				logger.Warn("writing metrics", zap.String("path", path), zap.Error(err))
			}
		}
		return runErr
	})
}

// withCache opens the SQLite cache and run log when enabled. fn receives
// nil when caching is disabled.
func withCache(d *Deps, fn func(*sqlite.Repository) error) error {
	if !d.Config.Cache.Enabled {
		return fn(nil)
	}

	cacheCfg := d.Config.Cache
	cacheCfg.Path = config.ResolvePath(d.BasePath, cacheCfg.Path)
	repo, err := sqlite.NewRepository(cacheCfg)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}
	return fn(repo)
}

// newLLMClient builds the configured provider wrapped in transport retries.
func newLLMClient(cfg config.LLMConfig, logger *zap.Logger) (ports.LLMClient, error) {
	var client ports.LLMClient
	switch cfg.Provider {
	case "anthropic":
		c, err := anthropic.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		c, err := openai.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}

	retry := llm.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	return llm.NewRetryingClient(client, retry, logger), nil
}

// withExtractDeps builds the extraction pipeline. useCache false bypasses
// the extraction cache but still records the run.
func withExtractDeps(useCache bool, fn func(*ExtractDeps) error) error {
	return withDeps(func(d *Deps) error {
		client, err := newLLMClient(d.Config.LLM, d.Logger)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}

		return withCache(d, func(repo *sqlite.Repository) error {
			var cache ports.ExtractionCache
			var runs ports.RunLog
			if repo != nil {
				runs = repo
				if useCache {
					cache = repo
				}
			}

			pool := services.NewWorkerPool(services.WorkerPoolConfig{MaxConcurrent: d.Config.Processing.Concurrency}, d.Logger)
			extraction := services.NewExtractionService(client, cache, d.Metrics, pool, d.Logger)
			loader := sources.NewLoader(d.Logger)
			store := d.NoteStore()

			return fn(&ExtractDeps{
				Deps:    d,
				Loader:  loader,
				Notes:   store,
				Handler: handlers.NewExtractHandler(loader, extraction, store, runs, d.Metrics, d.Logger),
			})
		})
	})
}

// withConvertHandler provides the vault reader and resolver.
func withConvertHandler(fn func(*Deps, *handlers.ConvertHandler) error) error {
	return withDeps(func(d *Deps) error {
		return fn(d, handlers.NewConvertHandler(d.NoteStore(), d.Metrics, d.Logger))
	})
}

// withLoadHandler provides the graph loader. The Neo4j store is only
// opened when the statements are going to be executed.
func withLoadHandler(dryRun bool, fn func(*Deps, *handlers.LoadHandler, *neo4j.Store) error) error {
	return withDeps(func(d *Deps) error {
		convert := handlers.NewConvertHandler(d.NoteStore(), d.Metrics, d.Logger)
		if dryRun {
			return fn(d, handlers.NewLoadHandler(convert, nil, d.Logger), nil)
		}

		store, err := neo4j.NewStore(d.Config.Neo4j, d.Logger)
		if err != nil {
			return fmt.Errorf("creating neo4j store: %w", err)
		}
		defer store.Close(context.Background()) //nolint:errcheck // best-effort close

		return fn(d, handlers.NewLoadHandler(convert, store, d.Logger), store)
	})
}

// withTripleLoadHandler provides the triple store loader. The store is
// only created when the Turtle is going to be uploaded.
func withTripleLoadHandler(dryRun bool, fn func(*Deps, *handlers.TripleLoadHandler, *sparql.Store) error) error {
	return withDeps(func(d *Deps) error {
		convert := handlers.NewConvertHandler(d.NoteStore(), d.Metrics, d.Logger)
		if dryRun {
			return fn(d, handlers.NewTripleLoadHandler(convert, nil, d.Logger), nil)
		}

		store, err := sparql.NewStore(d.Config.Fuseki, d.Logger)
		if err != nil {
			return fmt.Errorf("creating triple store: %w", err)
		}
		return fn(d, handlers.NewTripleLoadHandler(convert, store, d.Logger), store)
	})
}

// withQueryHandler provides indexing and search over the Qdrant collection
// derived from the ontology name.
func withQueryHandler(fn func(*Deps, *handlers.QueryHandler, *qdrant.Repository) error) error {
	return withDeps(func(d *Deps) error {
		repo, err := qdrant.NewRepository(d.Config.Qdrant, d.Config.CollectionName(d.Ontology.Name))
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer repo.Close()

		emb, err := embedder.NewEmbedder(d.Config.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		convert := handlers.NewConvertHandler(d.NoteStore(), d.Metrics, d.Logger)
		query := services.NewQueryService(emb, repo, d.Logger)
		return fn(d, handlers.NewQueryHandler(convert, query), repo)
	})
}

// withRunLog provides direct access to the SQLite cache and run log.
func withRunLog(fn func(*sqlite.Repository) error) error {
	return withConfig(func(base string, cfg *config.Config, logger *zap.Logger) error {
		if !cfg.Cache.Enabled {
			return errors.New("cache disabled (set cache.enabled: true)")
		}
		d := &Deps{BasePath: base, Config: cfg, Logger: logger}
		return withCache(d, fn)
	})
}
