// Package app wires configuration, storage, the Genkit runtime, the
// answering loop, and the HTTP server into one runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern-ai/lectern/internal/api"
	"github.com/lectern-ai/lectern/internal/config"
	"github.com/lectern-ai/lectern/internal/corpus"
	"github.com/lectern-ai/lectern/internal/database"
	"github.com/lectern-ai/lectern/internal/graph"
)

// App holds every initialized component. Call Close to release resources.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Store     *corpus.Store
	Retriever *corpus.Retriever
	Graph     *graph.Graph
	Server    *api.Server
}

// Setup creates and initializes the application. On error, everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	a.Store = corpus.NewStore(pool, logger)
	a.Retriever = corpus.NewRetriever(embedder, a.Store, logger,
		corpus.WithTopK(cfg.RetrievalTopK),
		corpus.WithTimeout(cfg.RetrieveTimeout),
	)

	a.Graph = provideGraph(g, cfg, a.Retriever, logger)

	server, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Runner:      a.Graph,
		Store:       a.Store,
		CORSOrigins: cfg.CORSOrigins,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	a.Server = server

	return a, nil
}

// providePool migrates the schema and opens the connection pool.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connString := cfg.PostgresConnString()

	if err := database.Migrate(connString); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	pool, err := database.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// provideGraph assembles the five loop stages on their configured models.
func provideGraph(g *genkit.Genkit, cfg *config.Config, retriever *corpus.Retriever, logger *slog.Logger) *graph.Graph {
	return graph.New(
		retriever,
		graph.NewGrader(g, cfg.GraderModel, cfg.JudgmentTimeout, logger),
		graph.NewRewriter(g, cfg.RewriterModel, cfg.JudgmentTimeout, logger),
		graph.NewGenerator(g, cfg.GeneratorModel, cfg.GenerateTimeout, logger),
		graph.NewGate(g, cfg.AuditorModel, cfg.JudgmentTimeout, logger),
		logger,
		graph.WithMaxRewrites(cfg.MaxRewrites),
		graph.WithMaxRegenerations(cfg.MaxRegenerations),
	)
}

// Close releases held resources. Safe to call on a partially built App.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
}
