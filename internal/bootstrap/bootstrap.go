// Package bootstrap wires infrastructure into the use cases for both
// binaries. The api loads the chunk corpus at startup to build the in-memory
// lexical index; the worker only needs the ingestion pipeline.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/antonkuzmin/citedoc/internal/config"
	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
	"github.com/antonkuzmin/citedoc/internal/core/usecase"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/chunking"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/chunkstore"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/extractor"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/index/lexical"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/llm/ollama"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/queue/nats"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/repository/postgres"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/resilience"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/storage/localfs"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	ChunkRepo ports.ChunkRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	Answers   ports.AnswerService

	closeFn func()
}

// NewAPI builds the query-serving application: ingestion endpoints plus the
// full retrieval and answer pipeline over the persisted corpus.
func NewAPI(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := newShared(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chunks, err := app.ChunkRepo.ListAll(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load chunk corpus: %w", err)
	}
	store := chunkstore.New(chunks)
	slog.Info("chunk corpus loaded", "chunks", store.Len())

	lexicalIndex := lexical.NewIndex(store.All())
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, store.ByID)
	llm := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)

	retriever := usecase.NewRetriever(lexicalIndex, llm, vectorDB)
	mode, err := parseConfiguredMode(cfg.RAGRetrievalMode)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Answers = usecase.NewAnswerUseCase(retriever, llm, usecase.AnswerConfig{
		DefaultMode:       mode,
		TopK:              cfg.RAGTopK,
		FusionK:           cfg.RAGFusionRRFK,
		HistoryWindow:     cfg.RAGHistoryMessages,
		ContextMaxChars:   cfg.RAGContextMaxChars,
		PassageMaxChars:   cfg.RAGContextChunkChars,
		DebugPreviewChars: cfg.RAGDebugPreviewChars,
	})

	return app, nil
}

// NewWorker builds the ingestion application: queue consumer, extraction,
// chunking, embedding and indexing.
func NewWorker(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := newShared(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func newShared(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llm := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, nil)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.NewDispatcher(storage)

	// Ingestion-side calls to flaky HTTP collaborators retry behind the
	// breaker; the query path in NewAPI uses the bare clients.
	embedder := ollama.NewResilientEmbedder(llm, executor)
	indexer := qdrant.NewResilientIndexer(vectorDB, executor)

	return &App{
		Config:    cfg,
		Queue:     queue,
		Repo:      repo,
		ChunkRepo: chunkRepo,
		IngestUC:  usecase.NewIngestDocumentUseCase(repo, storage, queue),
		ProcessUC: usecase.NewProcessDocumentUseCase(repo, chunkRepo, extract, chunker, embedder, indexer),
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func parseConfiguredMode(raw string) (domain.RetrievalMode, error) {
	mode, err := domain.ParseRetrievalMode(raw)
	if err != nil {
		return "", fmt.Errorf("invalid RAG_RETRIEVAL_MODE: %w", err)
	}
	return mode, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
