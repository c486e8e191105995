package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/mementolabs/deckgen/internal/cache"
	"github.com/mementolabs/deckgen/internal/cards"
	"github.com/mementolabs/deckgen/internal/categorize"
	"github.com/mementolabs/deckgen/internal/config"
	"github.com/mementolabs/deckgen/internal/database"
	"github.com/mementolabs/deckgen/internal/deck"
	"github.com/mementolabs/deckgen/internal/document"
	"github.com/mementolabs/deckgen/internal/embedding"
	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/pipeline"
	"github.com/mementolabs/deckgen/internal/queue"
	"github.com/mementolabs/deckgen/internal/queue/workers"
	"github.com/mementolabs/deckgen/internal/source"
	"github.com/mementolabs/deckgen/internal/storage"
	"github.com/mementolabs/deckgen/internal/vectorstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	blobs, err := storage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

	gw := llm.NewGateway(cfg.LLM)
	sourceSvc := source.NewService(db)
	documentSvc := document.NewService(db)
	deckSvc := deck.NewService(db)
	vs := vectorstore.NewPgVectorStore(db)
	embedSvc := embedding.NewService(gw, vs, cfg.LLM.EmbeddingModel, cfg.Pipeline.EmbedConcurrency)
	categorizeSvc := categorize.NewService(gw, documentSvc, sourceSvc, cfg.LLM.DefaultModel)
	generator := cards.NewGenerator(gw, deckSvc, documentSvc, cfg.LLM.DefaultModel)

	orchestrator := pipeline.NewOrchestrator(
		sourceSvc, documentSvc, deckSvc,
		embedSvc, categorizeSvc, generator,
		blobs, cache.New(rdb), pipeline.NewBus(),
		pipeline.Options{
			ChunkTokens:   cfg.Pipeline.ChunkTokens,
			OverlapTokens: cfg.Pipeline.OverlapTokens,
			MaxCards:      cfg.Pipeline.DefaultMaxCards,
		},
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	sourceWorker := workers.NewSourceWorker(orchestrator)
	cardsWorker := workers.NewCardsWorker(generator)

	registry.Register(queue.TypeSourceProcess, asynq.HandlerFunc(sourceWorker.ProcessTask))
	registry.Register(queue.TypeCardsGenerate, asynq.HandlerFunc(cardsWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
