package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mementolabs/deckgen/internal/api/handlers"
	"github.com/mementolabs/deckgen/internal/api/middleware"
	"github.com/mementolabs/deckgen/internal/auth"
	"github.com/mementolabs/deckgen/internal/cache"
	"github.com/mementolabs/deckgen/internal/cards"
	"github.com/mementolabs/deckgen/internal/categorize"
	"github.com/mementolabs/deckgen/internal/config"
	"github.com/mementolabs/deckgen/internal/deck"
	"github.com/mementolabs/deckgen/internal/document"
	"github.com/mementolabs/deckgen/internal/embedding"
	"github.com/mementolabs/deckgen/internal/graph"
	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/pipeline"
	"github.com/mementolabs/deckgen/internal/progress"
	"github.com/mementolabs/deckgen/internal/queue"
	"github.com/mementolabs/deckgen/internal/source"
	"github.com/mementolabs/deckgen/internal/storage"
	"github.com/mementolabs/deckgen/internal/vectorstore"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	blobs storage.Storage
	tasks *queue.Client
	bus   *pipeline.Bus
	jwt   *auth.JWTMiddleware
	llmGW llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, blobs storage.Storage, tasks *queue.Client, bus *pipeline.Bus) *Router {
	if bus == nil {
		bus = pipeline.NewBus()
	}
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		blobs: blobs,
		tasks: tasks,
		bus:   bus,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		llmGW: llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	sourceSvc := source.NewService(rt.db)
	documentSvc := document.NewService(rt.db)
	deckSvc := deck.NewService(rt.db)
	progressSvc := progress.NewService(rt.db)
	graphSvc := graph.NewService(rt.db)

	vs := vectorstore.NewPgVectorStore(rt.db)
	embedSvc := embedding.NewService(rt.llmGW, vs, rt.cfg.LLM.EmbeddingModel, rt.cfg.Pipeline.EmbedConcurrency)
	categorizeSvc := categorize.NewService(rt.llmGW, documentSvc, sourceSvc, rt.cfg.LLM.DefaultModel)
	generator := cards.NewGenerator(rt.llmGW, deckSvc, documentSvc, rt.cfg.LLM.DefaultModel)

	orchestrator := pipeline.NewOrchestrator(
		sourceSvc, documentSvc, deckSvc,
		embedSvc, categorizeSvc, generator,
		rt.blobs, cache.New(rt.redis), rt.bus,
		pipeline.Options{
			ChunkTokens:   rt.cfg.Pipeline.ChunkTokens,
			OverlapTokens: rt.cfg.Pipeline.OverlapTokens,
			MaxCards:      rt.cfg.Pipeline.DefaultMaxCards,
		},
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		sourceH := handlers.NewSourceHandler(sourceSvc, documentSvc, rt.blobs, rt.tasks, orchestrator)
		r.Route("/sources", func(r chi.Router) {
			r.Post("/upload", sourceH.Upload)
			r.Post("/url", sourceH.CreateFromURL)
			r.Get("/", sourceH.List)
			r.Get("/{id}", sourceH.Get)
			r.Get("/{id}/status", sourceH.Status)
			r.Post("/{id}/process", sourceH.Process)
		})

		eventsH := handlers.NewEventsHandler(rt.bus)
		r.Get("/sources/{id}/events", eventsH.Stream)

		deckH := handlers.NewDeckHandler(deckSvc, rt.tasks)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckH.List)
			r.Get("/{id}", deckH.Get)
			r.Get("/{id}/cards", deckH.Cards)
		})
		r.Post("/cards/generate", deckH.Generate)

		categorizeH := handlers.NewCategorizeHandler(categorizeSvc)
		r.Post("/documents/{id}/categorize", categorizeH.Categorize)

		searchH := handlers.NewSearchHandler(embedSvc, vs)
		r.Post("/search", searchH.Search)

		studyH := handlers.NewStudyHandler(progressSvc)
		r.Route("/study", func(r chi.Router) {
			r.Post("/answer", studyH.Answer)
			r.Get("/due", studyH.Due)
		})

		branchH := handlers.NewBranchHandler(graphSvc)
		r.Route("/branches", func(r chi.Router) {
			r.Post("/", branchH.Create)
			r.Get("/", branchH.List)
			r.Delete("/{id}", branchH.Delete)
		})
		r.Get("/cards/{id}/branches", branchH.ForCard)
	})

	return r
}
